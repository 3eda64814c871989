package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyOrdering(t *testing.T) {
	assert.True(t, UrgencyImmediate.AtLeast(UrgencyUrgent))
	assert.True(t, UrgencyUrgent.AtLeast(UrgencyUrgent))
	assert.False(t, UrgencyRoutine.AtLeast(UrgencyModerate))

	assert.Equal(t, UrgencyUrgent, UrgencyModerate.Escalate(UrgencyUrgent))
	assert.Equal(t, UrgencyImmediate, UrgencyImmediate.Escalate(UrgencyRoutine))
}

func TestUrgencyFromRisk(t *testing.T) {
	assert.Equal(t, UrgencyUrgent, UrgencyFromRisk(RiskHigh))
	assert.Equal(t, UrgencyModerate, UrgencyFromRisk(RiskModerate))
	assert.Equal(t, UrgencyRoutine, UrgencyFromRisk(RiskLow))
	assert.Equal(t, UrgencyRoutine, UrgencyFromRisk(""))
}

func TestRequestNormalize(t *testing.T) {
	req := &ConsultationRequest{
		SessionID: "s-1",
		Symptoms:  "  " + strings.Repeat("a", MaxSymptomLength+50),
		Analysis: &AnalysisResult{
			Predictions: []DetectedCondition{
				{Condition: "Eczema", Confidence: 0.7},
			},
		},
	}
	req.Normalize()

	assert.Len(t, req.Symptoms, MaxSymptomLength)
	assert.Equal(t, PriorityNormal, req.Priority)
	assert.Equal(t, "Eczema", req.Analysis.TopPrediction)
	assert.Equal(t, 0.7, req.Analysis.OverallConfidence)
	assert.Equal(t, RiskLow, req.Analysis.RiskLevel)
}

func TestRequestNormalizeTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the length limit must be dropped whole,
	// never cut into an invalid byte sequence.
	req := &ConsultationRequest{
		SessionID: "s-1",
		Symptoms:  strings.Repeat("a", MaxSymptomLength-1) + "é" + strings.Repeat("b", 10),
		Analysis: &AnalysisResult{
			Predictions: []DetectedCondition{{Condition: "Eczema", Confidence: 0.7}},
		},
	}
	req.Normalize()

	assert.True(t, utf8.ValidString(req.Symptoms))
	assert.Equal(t, MaxSymptomLength-1, len(req.Symptoms))
}

func TestRequestValidate(t *testing.T) {
	valid := func() *ConsultationRequest {
		return &ConsultationRequest{
			SessionID: "s-1",
			Priority:  PriorityNormal,
			Analysis: &AnalysisResult{
				Predictions: []DetectedCondition{{Condition: "Melanoma", Confidence: 0.9}},
			},
		}
	}

	require.NoError(t, valid().Validate())

	req := valid()
	req.SessionID = "   "
	assert.Error(t, req.Validate())

	req = valid()
	req.Analysis = nil
	assert.Error(t, req.Validate())

	req = valid()
	req.Analysis.Predictions = nil
	assert.Error(t, req.Validate())

	req = valid()
	req.Priority = "asap"
	assert.Error(t, req.Validate())

	req = valid()
	req.Analysis.Predictions[0].Confidence = 1.5
	assert.Error(t, req.Validate())
}

func TestFingerprint(t *testing.T) {
	analysis := &AnalysisResult{
		Predictions: []DetectedCondition{{Condition: "Melanoma", Confidence: 0.91, Severity: SeveritySevere}},
		RiskLevel:   RiskHigh,
	}

	first := analysis.Fingerprint("itchy and bleeding")
	second := analysis.Fingerprint("  ITCHY and bleeding ")
	assert.Equal(t, first, second, "fingerprint should ignore symptom case and padding")

	other := analysis.Fingerprint("no symptoms")
	assert.NotEqual(t, first, other)

	analysis.Predictions[0].Confidence = 0.92
	assert.NotEqual(t, first, analysis.Fingerprint("itchy and bleeding"))
}

func TestPromptValidate(t *testing.T) {
	p := &MedicalPrompt{
		SystemInstruction:  "role",
		UserPrompt:         "prompt",
		SafetyInstructions: []string{"never diagnose"},
	}
	require.NoError(t, p.Validate())

	p.SystemInstruction = ""
	assert.Error(t, p.Validate())
}
