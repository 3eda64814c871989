package validation

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/consult-api/internal/model"
)

// Report is the compliance determination for one validated response.
type Report struct {
	Valid           bool     `json:"valid"`
	SafetyValidated bool     `json:"safety_validated"`
	Score           int      `json:"score"`
	Issues          []string `json:"issues,omitempty"`
	Repairs         []string `json:"repairs,omitempty"`
}

// Service checks and repairs generative output into a compliant
// consultation. Stateless per call.
type Service interface {
	Validate(raw string, analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment) (*model.Consultation, []model.EmergencyContact, *Report)
}

type service struct {
	sanitizer *sanitizer
}

// NewService constructs a validator. An empty prohibited list keeps the
// built-in phrase set.
func NewService(prohibited []string) Service {
	if len(prohibited) == 0 {
		prohibited = defaultProhibitedPhrases()
	}
	return &service{sanitizer: newSanitizer(prohibited)}
}

func (s *service) Validate(raw string, analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment) (*model.Consultation, []model.EmergencyContact, *Report) {
	report := &Report{Valid: true}

	cleaned := s.sanitizer.clean(raw)
	sections := parseSections(cleaned)

	// (1) Structural check: required sections get synthetic fallback text.
	if sections["assessment"] == "" {
		sections["assessment"] = syntheticAssessment(analysis)
		report.Issues = append(report.Issues, "missing condition assessment section")
		report.Repairs = append(report.Repairs, "synthesized condition assessment")
		report.Valid = false
	}
	recommendations := splitRecommendations(sections["recommendations"])
	if len(recommendations) == 0 {
		recommendations = syntheticRecommendations(assessment)
		report.Issues = append(report.Issues, "missing recommendations section")
		report.Repairs = append(report.Repairs, "synthesized recommendations")
		report.Valid = false
	}

	// (2) Safety check: prohibited diagnostic/prescription language.
	prohibited := s.sanitizer.findProhibited(cleaned)
	for _, phrase := range prohibited {
		report.Issues = append(report.Issues, fmt.Sprintf("prohibited content: %q", phrase))
	}
	if len(prohibited) > 0 {
		report.Valid = false
		report.Repairs = append(report.Repairs, "replaced prohibited phrasing")
		for key, text := range sections {
			sections[key] = s.sanitizer.replaceProhibited(text)
		}
		for i, rec := range recommendations {
			recommendations[i] = s.sanitizer.replaceProhibited(rec)
		}
		cleaned = s.sanitizer.replaceProhibited(cleaned)
	}

	// (3) Disclaimer check: vocabulary breadth plus a critical phrase.
	disclaimer := sections["disclaimer"]
	if !disclaimerValid(disclaimer) {
		// A disclaimer elsewhere in the body still counts.
		if disclaimerValid(cleaned) && disclaimer != "" {
			// keep as-is
		} else {
			report.Issues = append(report.Issues, "missing or inadequate medical disclaimer")
			report.Repairs = append(report.Repairs, "inserted comprehensive disclaimer")
			report.Valid = false
			disclaimer = comprehensiveDisclaimer
		}
	}
	if disclaimer == "" {
		disclaimer = comprehensiveDisclaimer
		report.Repairs = append(report.Repairs, "inserted comprehensive disclaimer")
	}

	// (4) Urgency extraction cross-checks the declared tier. The final tier
	// only ever escalates.
	urgency := assessment.Level.Escalate(extractUrgency(cleaned))

	// (5) Professional-consultation phrasing on every recommendation.
	recommendations = s.sanitizer.enforceProfessionalPhrasing(recommendations)

	consultation := &model.Consultation{
		ConditionAssessment: sections["assessment"],
		SymptomCorrelation:  sections["symptoms"],
		Recommendations:     recommendations,
		UrgencyLevel:        urgency,
		EducationalInfo:     sections["education"],
		MedicalDisclaimer:   disclaimer,
	}
	if consultation.SymptomCorrelation == "" && symptoms != "" {
		consultation.SymptomCorrelation = "Reported symptoms were considered alongside the image findings; discuss them with a clinician for a full evaluation."
		report.Repairs = append(report.Repairs, "synthesized symptom correlation")
	}

	contacts := append([]model.EmergencyContact(nil), assessment.Contacts...)

	// (6) Immediate-tier hard gate with automatic enhancement.
	if assessment.Level == model.UrgencyImmediate {
		s.enforceImmediateGate(consultation, assessment, report)
		if len(contacts) == 0 {
			contacts = assessment.Contacts
		}
	}

	// (7) Compliance scoring over the repaired content.
	full := strings.ToLower(consultationText(consultation))
	report.Score = complianceScore(scoreInput{
		disclaimerValid:      disclaimerValid(consultation.MedicalDisclaimer),
		prohibitedHits:       len(s.sanitizer.findProhibited(consultationText(consultation))),
		professionalMentions: countOccurrences(full, professionalVocabulary),
		contactsRequired:     assessment.Level.AtLeast(model.UrgencyUrgent),
		contactsPresent:      len(contacts) > 0,
		uncertaintyMentions:  countOccurrences(full, uncertaintyVocabulary),
	})
	report.SafetyValidated = report.Score >= MinComplianceScore

	return consultation, contacts, report
}

// enforceImmediateGate repairs rather than rejects: critical-alert prepend,
// forced urgency, delay-phrase removal.
func (s *service) enforceImmediateGate(c *model.Consultation, assessment *model.UrgencyAssessment, report *Report) {
	text := strings.ToLower(consultationText(c))

	if !containsAny(text, immediateVocabulary) {
		c.ConditionAssessment = criticalAlertText + "\n\n" + c.ConditionAssessment
		report.Repairs = append(report.Repairs, "prepended critical alert")
	}

	for _, phrase := range delayPhrases {
		if strings.Contains(text, phrase) {
			report.Issues = append(report.Issues, fmt.Sprintf("delay-suggesting phrase: %q", phrase))
			report.Repairs = append(report.Repairs, "removed delay-suggesting phrasing")
			report.Valid = false
			c.ConditionAssessment = replaceFold(c.ConditionAssessment, phrase, "seek care promptly")
			c.SymptomCorrelation = replaceFold(c.SymptomCorrelation, phrase, "seek care promptly")
			c.EducationalInfo = replaceFold(c.EducationalInfo, phrase, "seek care promptly")
			for i, rec := range c.Recommendations {
				c.Recommendations[i] = replaceFold(rec, phrase, "seek care promptly")
			}
		}
	}

	if c.UrgencyLevel != model.UrgencyImmediate {
		c.UrgencyLevel = model.UrgencyImmediate
		report.Repairs = append(report.Repairs, "forced urgency to immediate")
	}

	if len(assessment.Contacts) > 0 {
		report.Repairs = append(report.Repairs, "attached emergency contacts")
	}
}

// parseSections splits cleaned text into consultation sections by heading
// and keyword cues. Text before any recognized heading lands in the
// assessment section.
func parseSections(text string) map[string]string {
	sections := map[string]string{}
	bodies := map[string][]string{}
	current := "assessment"

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if section, ok := headingFor(trimmed); ok {
			current = section
			if rest := headingRemainder(trimmed); rest != "" {
				bodies[current] = append(bodies[current], rest)
			}
			continue
		}
		bodies[current] = append(bodies[current], trimmed)
	}

	for section, lines := range bodies {
		sections[section] = strings.Join(lines, "\n")
	}
	return sections
}

// headingFor matches a line against the section markers. Only short lines
// qualify as headings so body sentences mentioning a marker don't split
// the text.
func headingFor(line string) (string, bool) {
	lower := strings.ToLower(line)
	if len(lower) > 60 {
		return "", false
	}
	for _, section := range []string{"assessment", "symptoms", "recommendations", "urgency", "education", "disclaimer"} {
		for _, marker := range sectionMarkers[section] {
			if strings.HasPrefix(lower, marker) || strings.HasPrefix(lower, marker+":") {
				return section, true
			}
		}
	}
	return "", false
}

// headingRemainder returns inline content after "Heading: content".
func headingRemainder(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 && idx < len(line)-1 {
		return strings.TrimSpace(line[idx+1:])
	}
	return ""
}

func splitRecommendations(section string) []string {
	if strings.TrimSpace(section) == "" {
		return nil
	}
	var recs []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•*0123456789. )")
		if line != "" {
			recs = append(recs, line)
		}
	}
	return recs
}

func disclaimerValid(text string) bool {
	lower := strings.ToLower(text)
	var vocabHits int
	for _, term := range disclaimerVocabulary {
		if strings.Contains(lower, term) {
			vocabHits++
		}
	}
	if vocabHits < minDisclaimerTerms {
		return false
	}
	return containsAny(lower, criticalDisclaimerPhrases)
}

// extractUrgency infers a tier from free text via the keyword families.
func extractUrgency(text string) model.UrgencyLevel {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, immediateVocabulary):
		return model.UrgencyImmediate
	case containsAny(lower, urgentVocabulary):
		return model.UrgencyUrgent
	case containsAny(lower, moderateVocabulary):
		return model.UrgencyModerate
	default:
		return model.UrgencyRoutine
	}
}

func syntheticAssessment(analysis *model.AnalysisResult) string {
	if analysis == nil || !analysis.HasPredictions() {
		return "The screening could not produce a specific assessment. A medical professional should evaluate the area directly."
	}
	top := analysis.Top()
	return fmt.Sprintf("The image analysis suggests findings that may be consistent with %s (%.0f%% confidence). Only an in-person examination by a qualified clinician can determine what the finding actually is.",
		top.Condition, top.Confidence*100)
}

func syntheticRecommendations(assessment *model.UrgencyAssessment) []string {
	recs := []string{
		"Consult a qualified healthcare professional about these findings.",
		"Take note of any changes in size, shape, or color of the affected area.",
	}
	if assessment != nil && assessment.Level.AtLeast(model.UrgencyUrgent) {
		recs = append([]string{"Seek professional medical evaluation promptly, per the advised timeframe."}, recs...)
	}
	return recs
}

func consultationText(c *model.Consultation) string {
	parts := []string{c.ConditionAssessment, c.SymptomCorrelation, c.EducationalInfo, c.MedicalDisclaimer}
	parts = append(parts, c.Recommendations...)
	return strings.Join(parts, "\n")
}

func replaceFold(text, phrase, replacement string) string {
	lower := strings.ToLower(text)
	phrase = strings.ToLower(phrase)
	for {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			return text
		}
		text = text[:idx] + replacement + text[idx+len(phrase):]
		lower = strings.ToLower(text)
	}
}
