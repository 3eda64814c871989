package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/consult-api/internal/model"
)

func analysisFor(condition string, confidence float64, opts ...func(*model.DetectedCondition)) *model.AnalysisResult {
	pred := model.DetectedCondition{Condition: condition, Confidence: confidence}
	for _, opt := range opts {
		opt(&pred)
	}
	a := &model.AnalysisResult{Predictions: []model.DetectedCondition{pred}, RiskLevel: model.RiskLow}
	a.Normalize()
	return a
}

func TestAssessMelanomaIsImmediate(t *testing.T) {
	svc := NewService(Terms{})

	assessment := svc.Assess(analysisFor("Melanoma", 0.92), "")

	assert.Equal(t, model.UrgencyImmediate, assessment.Level)
	assert.True(t, assessment.IsHighRisk)
	assert.NotEmpty(t, assessment.Factors)
	assert.NotEmpty(t, assessment.Timeframe)

	require.NotEmpty(t, assessment.Contacts)
	var emergency bool
	for _, c := range assessment.Contacts {
		if c.Type == model.ContactEmergency {
			emergency = true
			assert.Equal(t, "911", c.Phone)
		}
	}
	assert.True(t, emergency, "immediate tier must include the emergency contact")
}

func TestAssessBenignConditionStaysLow(t *testing.T) {
	svc := NewService(Terms{})

	assessment := svc.Assess(analysisFor("Seborrheic Keratosis", 0.85), "a rough patch on my back")

	assert.Equal(t, model.UrgencyRoutine, assessment.Level)
	assert.False(t, assessment.IsHighRisk)
	assert.Empty(t, assessment.Contacts)
	assert.Empty(t, assessment.EmergencyIndicators)
}

func TestAssessSeverityAndAttentionFlags(t *testing.T) {
	svc := NewService(Terms{})

	severe := svc.Assess(analysisFor("Eczema", 0.7, func(p *model.DetectedCondition) {
		p.Severity = model.SeveritySevere
	}), "")
	assert.Equal(t, model.UrgencyUrgent, severe.Level)

	attention := svc.Assess(analysisFor("Eczema", 0.7, func(p *model.DetectedCondition) {
		p.RequiresAttention = true
	}), "")
	assert.Equal(t, model.UrgencyModerate, attention.Level)
}

func TestAssessSymptomEscalation(t *testing.T) {
	svc := NewService(Terms{})

	urgent := svc.Assess(analysisFor("Dermatofibroma", 0.6), "the spot started bleeding yesterday")
	assert.Equal(t, model.UrgencyUrgent, urgent.Level)
	assert.Contains(t, urgent.EmergencyIndicators, "bleeding")

	systemic := svc.Assess(analysisFor("Dermatofibroma", 0.6), "I have a fever and night sweats")
	assert.Equal(t, model.UrgencyImmediate, systemic.Level)
	assert.Contains(t, systemic.EmergencyIndicators, "fever")
}

func TestAssessRiskLevelFloor(t *testing.T) {
	svc := NewService(Terms{})

	analysis := analysisFor("Unknown Lesion", 0.5)
	analysis.RiskLevel = model.RiskHigh
	assessment := svc.Assess(analysis, "")

	assert.Equal(t, model.UrgencyUrgent, assessment.Level)
}

func TestAssessNeverDowngrades(t *testing.T) {
	svc := NewService(Terms{})

	// Symptoms that alone would be urgent must not pull an immediate
	// condition down the scale.
	assessment := svc.Assess(analysisFor("Malignant Melanoma", 0.95), "slight bleeding")
	assert.Equal(t, model.UrgencyImmediate, assessment.Level)
}

func TestAssessIsDeterministic(t *testing.T) {
	svc := NewService(Terms{})
	analysis := analysisFor("Basal Cell Carcinoma", 0.8)

	first := svc.Assess(analysis, "growing quickly with irregular border")
	second := svc.Assess(analysis, "growing quickly with irregular border")

	assert.Equal(t, first, second)
}

func TestAssessEmptyAnalysis(t *testing.T) {
	svc := NewService(Terms{})

	assessment := svc.Assess(&model.AnalysisResult{}, "anything")

	assert.Equal(t, model.UrgencyRoutine, assessment.Level)
	assert.NotEmpty(t, assessment.Timeframe)
}

func TestCustomTermsOverride(t *testing.T) {
	svc := NewService(Terms{HighRiskConditions: []string{"widget disease"}})

	custom := svc.Assess(analysisFor("Widget Disease", 0.9), "")
	assert.Equal(t, model.UrgencyImmediate, custom.Level)

	// The override replaces the built-in list entirely.
	melanoma := svc.Assess(analysisFor("Melanoma", 0.9), "")
	assert.NotEqual(t, model.UrgencyImmediate, melanoma.Level)
}
