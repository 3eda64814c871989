package prompt

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/consult-api/internal/model"
)

// maxAlternates bounds how many secondary predictions appear in the prompt.
const maxAlternates = 3

// Builder constructs the structured request sent to the generative service.
type Builder interface {
	Build(analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment) (*model.MedicalPrompt, error)
}

type builder struct{}

func NewBuilder() Builder {
	return &builder{}
}

func (b *builder) Build(analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment) (*model.MedicalPrompt, error) {
	if analysis == nil || !analysis.HasPredictions() {
		return nil, fmt.Errorf("cannot build prompt without predictions")
	}
	if assessment == nil {
		return nil, fmt.Errorf("cannot build prompt without an urgency assessment")
	}

	top := analysis.Top()

	system := b.systemInstruction(assessment.Level)
	user := b.userPrompt(analysis, symptoms, assessment, top)

	p := &model.MedicalPrompt{
		SystemInstruction:  system,
		UserPrompt:         user,
		SafetyInstructions: append([]string(nil), safetyClauses...),
		Context: model.PromptContext{
			Predictions: analysis.Predictions,
			Symptoms:    symptoms,
			RiskLevel:   analysis.RiskLevel,
			Urgency:     assessment.Level,
		},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *builder) systemInstruction(level model.UrgencyLevel) string {
	var sb strings.Builder
	sb.WriteString(systemRole)
	sb.WriteString("\n\n")
	sb.WriteString(systemSafetyPreamble)
	switch level {
	case model.UrgencyImmediate:
		sb.WriteString("\n\n")
		sb.WriteString(immediateProtocol)
	case model.UrgencyUrgent:
		sb.WriteString("\n\n")
		sb.WriteString(urgentProtocol)
	}
	return sb.String()
}

func (b *builder) userPrompt(analysis *model.AnalysisResult, symptoms string, assessment *model.UrgencyAssessment, top model.DetectedCondition) string {
	var sb strings.Builder

	sb.WriteString("## Image Analysis Findings\n")
	fmt.Fprintf(&sb, "Primary finding: %s (%.0f%% confidence, severity: %s, category: %s)\n",
		top.Condition, top.Confidence*100, orUnknown(string(top.Severity)), orUnknown(top.Category))
	if top.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", top.Description)
	}

	alternates := analysis.Predictions[1:]
	if len(alternates) > maxAlternates {
		alternates = alternates[:maxAlternates]
	}
	if len(alternates) > 0 {
		sb.WriteString("Other possibilities considered:\n")
		for _, alt := range alternates {
			fmt.Fprintf(&sb, "- %s (%.0f%% confidence)\n", alt.Condition, alt.Confidence*100)
		}
	}

	sb.WriteString("\n## Risk Assessment\n")
	fmt.Fprintf(&sb, "Overall risk level: %s\n", analysis.RiskLevel)
	fmt.Fprintf(&sb, "Urgency tier: %s\n", assessment.Level)
	fmt.Fprintf(&sb, "Recommended timeframe: %s\n", assessment.Timeframe)
	for _, factor := range assessment.Factors {
		fmt.Fprintf(&sb, "- %s\n", factor)
	}

	if symptoms != "" {
		sb.WriteString("\n## Reported Symptoms\n")
		sb.WriteString(symptoms)
		sb.WriteString("\n")
	}

	if assessment.Level.AtLeast(model.UrgencyUrgent) {
		sb.WriteString("\n## Urgency Protocol\n")
		if assessment.Level == model.UrgencyImmediate {
			sb.WriteString(immediateProtocol)
		} else {
			sb.WriteString(urgentProtocol)
		}
		sb.WriteString("\n")
		if len(assessment.Contacts) > 0 {
			sb.WriteString("\nEmergency contacts to include verbatim:\n")
			for _, c := range assessment.Contacts {
				fmt.Fprintf(&sb, "- %s: %s (%s)\n", c.Name, c.Phone, c.Description)
			}
		}
	}

	category, guidance := guidanceFor(top.Condition)
	sb.WriteString("\n## Condition-Specific Instructions\n")
	fmt.Fprintf(&sb, "Guidance category: %s\n%s\n", category, guidance)

	for _, instruction := range assessment.SpecialInstructions {
		fmt.Fprintf(&sb, "- %s\n", instruction)
	}

	sb.WriteString("\n## Task\n")
	sb.WriteString("Write a structured consultation with these sections: " +
		"Condition Assessment, Symptom Correlation, Recommendations, " +
		"Urgency Level, Educational Information, Medical Disclaimer.")

	return sb.String()
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
