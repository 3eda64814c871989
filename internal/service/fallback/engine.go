package fallback

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/consult-api/internal/model"
)

// ModelName identifies fallback consultations in response metadata.
const ModelName = "offline-fallback"

// Engine synthesizes a consultation locally when the generative service
// is unavailable. Generation is deterministic and never fails on a
// well-formed analysis.
type Engine interface {
	Generate(analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment) *model.Consultation
}

type engine struct{}

func NewEngine() Engine {
	return &engine{}
}

func (e *engine) Generate(analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment) *model.Consultation {
	if analysis == nil || !analysis.HasPredictions() {
		return e.minimal(assessment)
	}
	top := analysis.Top()

	c := &model.Consultation{
		ConditionAssessment: assessmentFor(&top),
		SymptomCorrelation:  correlationFor(symptoms, &top),
		Recommendations:     recommendationsFor(&top, assessment),
		UrgencyLevel:        assessment.Level,
		EducationalInfo:     educationFor(top.Condition),
		MedicalDisclaimer:   fallbackDisclaimer,
	}
	return c
}

// minimal is the consultation for an analysis without predictions.
func (e *engine) minimal(assessment *model.UrgencyAssessment) *model.Consultation {
	level := model.UrgencyRoutine
	if assessment != nil {
		level = assessment.Level
	}
	return &model.Consultation{
		ConditionAssessment: minimalConsultation,
		Recommendations: []string{
			"Consult a qualified healthcare professional for an in-person evaluation.",
			"Consider retaking the photo in good lighting if you wish to rescreen.",
		},
		UrgencyLevel:      level,
		MedicalDisclaimer: fallbackDisclaimer,
	}
}

// assessmentFor selects the confidence-band phrasing for the top finding.
func assessmentFor(top *model.DetectedCondition) string {
	for _, band := range assessmentBands {
		if top.Confidence >= band.min {
			return fmt.Sprintf(band.phrasing, top.Condition, top.Confidence*100)
		}
	}
	last := assessmentBands[len(assessmentBands)-1]
	return fmt.Sprintf(last.phrasing, top.Condition, top.Confidence*100)
}

// correlationFor builds the symptom paragraph from keyword heuristics.
func correlationFor(symptoms string, top *model.DetectedCondition) string {
	trimmed := strings.TrimSpace(symptoms)
	if trimmed == "" {
		return "No symptoms were reported with this screening. If you notice itching, pain, bleeding, or changes in the area, mention them to your clinician."
	}
	lower := strings.ToLower(trimmed)

	var notes []string
	if word, ok := firstMatch(lower, severityWords); ok {
		notes = append(notes, fmt.Sprintf("the described intensity (%q)", word))
	}
	if word, ok := firstMatch(lower, durationWords); ok {
		notes = append(notes, fmt.Sprintf("the reported timeline (%q)", word))
	}
	if word, ok := firstMatch(lower, locationWords); ok {
		notes = append(notes, fmt.Sprintf("the affected location (%q)", word))
	}

	base := fmt.Sprintf("Your reported symptoms were considered alongside the visual findings for %s.", top.Condition)
	if len(notes) == 0 {
		return base + " Share the full symptom history with your clinician, as details like onset and progression guide the evaluation."
	}
	return base + " In particular, " + strings.Join(notes, ", ") +
		" may be relevant, and a clinician can interpret these details in context."
}

// recommendationsFor merges urgency-tier actions (first) with
// condition-specific guidance, deduplicated in order.
func recommendationsFor(top *model.DetectedCondition, assessment *model.UrgencyAssessment) []string {
	var recs []string
	if assessment != nil {
		recs = append(recs, urgencyRecommendations[string(assessment.Level)]...)
	}
	lower := strings.ToLower(top.Condition)
	for _, entry := range conditionRecommendations {
		if strings.Contains(lower, entry.key) {
			recs = append(recs, entry.recs...)
			break
		}
	}
	if len(recs) == 0 {
		recs = append(recs,
			"Consult a qualified healthcare professional about these findings.",
			"Monitor the area for changes in size, shape, or color.",
		)
	}
	return dedupe(recs)
}

// educationFor resolves the category education text from the condition name.
func educationFor(condition string) string {
	lower := strings.ToLower(condition)
	for _, entry := range categoryTerms {
		for _, term := range entry.terms {
			if strings.Contains(lower, term) {
				return categoryEducation[entry.category]
			}
		}
	}
	return categoryEducation["general"]
}

func firstMatch(text string, words []string) (string, bool) {
	for _, word := range words {
		if strings.Contains(text, word) {
			return word, true
		}
	}
	return "", false
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
