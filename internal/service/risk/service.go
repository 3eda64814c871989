package risk

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/consult-api/internal/model"
)

// Service assesses classifier output and reported symptoms into an urgency
// tier with justifications. Assessments are pure functions of their input:
// identical input always yields an identical assessment.
type Service interface {
	Assess(analysis *model.AnalysisResult, symptoms string) *model.UrgencyAssessment
}

type service struct {
	terms Terms
}

// NewService constructs a risk assessor. Pass zero-value lists in terms to
// keep the built-in defaults for those lists.
func NewService(terms Terms) Service {
	defaults := DefaultTerms()
	if len(terms.HighRiskConditions) == 0 {
		terms.HighRiskConditions = defaults.HighRiskConditions
	}
	if len(terms.UrgentSymptoms) == 0 {
		terms.UrgentSymptoms = defaults.UrgentSymptoms
	}
	if len(terms.EvolutionCriteria) == 0 {
		terms.EvolutionCriteria = defaults.EvolutionCriteria
	}
	if len(terms.SystemicSymptoms) == 0 {
		terms.SystemicSymptoms = defaults.SystemicSymptoms
	}
	return &service{terms: terms}
}

func (s *service) Assess(analysis *model.AnalysisResult, symptoms string) *model.UrgencyAssessment {
	assessment := &model.UrgencyAssessment{
		Level:               model.UrgencyRoutine,
		Factors:             []string{},
		EmergencyIndicators: []string{},
	}

	if analysis == nil || !analysis.HasPredictions() {
		assessment.Timeframe = timeframeFor(assessment.Level)
		return assessment
	}

	top := analysis.Top()
	condition := strings.ToLower(top.Condition)

	// (a) High-risk condition names force the immediate tier.
	for _, term := range s.terms.HighRiskConditions {
		if strings.Contains(condition, term) {
			assessment.Level = assessment.Level.Escalate(model.UrgencyImmediate)
			assessment.IsHighRisk = true
			assessment.Factors = append(assessment.Factors,
				fmt.Sprintf("Detected condition %q matches high-risk term %q", top.Condition, term))
			break
		}
	}

	// (b) Classifier metadata raises the urgency floor.
	if top.RequiresAttention {
		assessment.Level = assessment.Level.Escalate(model.UrgencyModerate)
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("%s is flagged as requiring medical attention", top.Condition))
	}
	switch top.Severity {
	case model.SeveritySevere:
		assessment.Level = assessment.Level.Escalate(model.UrgencyUrgent)
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("%s is classified as severe", top.Condition))
	case model.SeverityModerate:
		assessment.Level = assessment.Level.Escalate(model.UrgencyModerate)
		assessment.Factors = append(assessment.Factors,
			fmt.Sprintf("%s is classified as moderate severity", top.Condition))
	}

	// (c) Symptom text scan, case-insensitive.
	text := strings.ToLower(symptoms)
	if text != "" {
		for _, term := range s.terms.UrgentSymptoms {
			if strings.Contains(text, term) {
				assessment.Level = assessment.Level.Escalate(model.UrgencyUrgent)
				assessment.EmergencyIndicators = append(assessment.EmergencyIndicators, term)
				assessment.Factors = append(assessment.Factors,
					fmt.Sprintf("Reported symptom matches urgent indicator %q", term))
			}
		}
		for _, term := range s.terms.EvolutionCriteria {
			if strings.Contains(text, term) {
				assessment.Level = assessment.Level.Escalate(model.UrgencyUrgent)
				assessment.EmergencyIndicators = append(assessment.EmergencyIndicators, term)
				assessment.Factors = append(assessment.Factors,
					fmt.Sprintf("Reported lesion change matches evolution criterion %q", term))
			}
		}
		for _, term := range s.terms.SystemicSymptoms {
			if strings.Contains(text, term) {
				assessment.Level = assessment.Level.Escalate(model.UrgencyImmediate)
				assessment.EmergencyIndicators = append(assessment.EmergencyIndicators, term)
				assessment.Factors = append(assessment.Factors,
					fmt.Sprintf("Reported systemic symptom %q requires immediate evaluation", term))
			}
		}
	}

	// (d) The classifier's own coarse risk level sets a floor on the scale.
	assessment.Level = assessment.Level.Escalate(model.UrgencyFromRisk(analysis.RiskLevel))
	if analysis.RiskLevel == model.RiskHigh {
		assessment.Factors = append(assessment.Factors, "Image analysis reports a high overall risk level")
	}

	assessment.Timeframe = timeframeFor(assessment.Level)
	assessment.Contacts = s.contactsFor(assessment.Level)
	assessment.SpecialInstructions = specialInstructionsFor(assessment)

	return assessment
}

func (s *service) contactsFor(level model.UrgencyLevel) []model.EmergencyContact {
	types := contactTypesFor(level)
	if len(types) == 0 {
		return nil
	}
	wanted := make(map[model.ContactType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var contacts []model.EmergencyContact
	for _, c := range contactCatalog {
		if wanted[c.Type] {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// specialInstructionsFor produces the ordered special-instruction strings
// injected into prompts and fallback consultations.
func specialInstructionsFor(a *model.UrgencyAssessment) []string {
	var instructions []string
	if a.IsHighRisk {
		instructions = append(instructions,
			"Emphasize that the detected pattern warrants prompt professional evaluation to rule out a serious condition.")
	}
	switch a.Level {
	case model.UrgencyImmediate:
		instructions = append(instructions,
			"State clearly that care should be sought within 24 hours.",
			"Include emergency contact information prominently.")
	case model.UrgencyUrgent:
		instructions = append(instructions,
			"Recommend a dermatology appointment within the next few days.")
	}
	if len(a.EmergencyIndicators) > 0 {
		instructions = append(instructions,
			"Acknowledge the reported warning signs and explain why they matter.")
	}
	return instructions
}
