package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/consult-api/internal/model"
)

func analysisWith(condition string, confidence float64) *model.AnalysisResult {
	a := &model.AnalysisResult{
		Predictions: []model.DetectedCondition{{Condition: condition, Confidence: confidence}},
	}
	a.Normalize()
	return a
}

func assessmentAt(level model.UrgencyLevel) *model.UrgencyAssessment {
	return &model.UrgencyAssessment{Level: level, Timeframe: "soon"}
}

func TestGenerateAlwaysCarriesDisclaimer(t *testing.T) {
	e := NewEngine()

	for _, analysis := range []*model.AnalysisResult{
		analysisWith("Melanoma", 0.9),
		analysisWith("Eczema", 0.5),
		{},
		nil,
	} {
		c := e.Generate(analysis, "", assessmentAt(model.UrgencyRoutine))
		require.NotNil(t, c)
		assert.Contains(t, c.MedicalDisclaimer, "not a substitute for professional medical advice")
		assert.NotEmpty(t, c.ConditionAssessment)
		assert.NotEmpty(t, c.Recommendations)
	}
}

func TestGenerateConfidenceBands(t *testing.T) {
	e := NewEngine()

	cases := []struct {
		confidence float64
		fragment   string
	}{
		{0.9, "strong visual match"},
		{0.7, "may be consistent with"},
		{0.5, "the match is uncertain"},
		{0.2, "could not confidently match"},
	}
	for _, tc := range cases {
		c := e.Generate(analysisWith("Eczema", tc.confidence), "", assessmentAt(model.UrgencyRoutine))
		assert.Contains(t, c.ConditionAssessment, tc.fragment, "confidence %.1f", tc.confidence)
		assert.Contains(t, c.ConditionAssessment, "Eczema")
	}
}

func TestGenerateUrgencyRecommendationsComeFirst(t *testing.T) {
	e := NewEngine()

	c := e.Generate(analysisWith("Melanoma", 0.9), "", assessmentAt(model.UrgencyImmediate))

	require.NotEmpty(t, c.Recommendations)
	assert.Contains(t, c.Recommendations[0], "immediately")
	assert.Equal(t, model.UrgencyImmediate, c.UrgencyLevel)

	var dermatology bool
	for _, rec := range c.Recommendations {
		if strings.Contains(rec, "dermatology evaluation") {
			dermatology = true
		}
	}
	assert.True(t, dermatology, "condition-specific guidance should follow: %v", c.Recommendations)
}

func TestGenerateUsesTopPrediction(t *testing.T) {
	e := NewEngine()

	a := &model.AnalysisResult{
		Predictions: []model.DetectedCondition{
			{Condition: "Melanoma", Confidence: 0.85},
			{Condition: "Dermatofibroma", Confidence: 0.3},
		},
	}
	a.Normalize()

	c := e.Generate(a, "a dark spot on my back", assessmentAt(model.UrgencyImmediate))
	assert.Contains(t, c.ConditionAssessment, "Melanoma")
	assert.Contains(t, c.ConditionAssessment, "strong visual match")
	assert.NotContains(t, c.ConditionAssessment, "Dermatofibroma")
	assert.Contains(t, c.SymptomCorrelation, "Melanoma")
	assert.Contains(t, c.EducationalInfo, "ABCDE")
}

func TestGenerateSymptomCorrelation(t *testing.T) {
	e := NewEngine()

	c := e.Generate(analysisWith("Eczema", 0.7), "severe itching on my arm for two weeks", assessmentAt(model.UrgencyRoutine))
	assert.Contains(t, c.SymptomCorrelation, `"severe"`)
	assert.Contains(t, c.SymptomCorrelation, `"week"`)
	assert.Contains(t, c.SymptomCorrelation, `"arm"`)

	empty := e.Generate(analysisWith("Eczema", 0.7), "", assessmentAt(model.UrgencyRoutine))
	assert.Contains(t, empty.SymptomCorrelation, "No symptoms were reported")
}

func TestGenerateCategoryEducation(t *testing.T) {
	e := NewEngine()

	onc := e.Generate(analysisWith("Basal Cell Carcinoma", 0.8), "", assessmentAt(model.UrgencyUrgent))
	assert.Contains(t, onc.EducationalInfo, "ABCDE")

	unknown := e.Generate(analysisWith("Mystery Spot", 0.6), "", assessmentAt(model.UrgencyRoutine))
	assert.Equal(t, categoryEducation["general"], unknown.EducationalInfo)
}

func TestGenerateEmptyPredictionsMinimal(t *testing.T) {
	e := NewEngine()

	c := e.Generate(&model.AnalysisResult{}, "itchy", assessmentAt(model.UrgencyModerate))

	assert.Contains(t, c.ConditionAssessment, "did not return any usable findings")
	assert.Equal(t, model.UrgencyModerate, c.UrgencyLevel)
	assert.NotEmpty(t, c.Recommendations)
}

func TestGenerateIsDeterministic(t *testing.T) {
	e := NewEngine()

	first := e.Generate(analysisWith("Psoriasis", 0.65), "flaky patches", assessmentAt(model.UrgencyModerate))
	second := e.Generate(analysisWith("Psoriasis", 0.65), "flaky patches", assessmentAt(model.UrgencyModerate))

	assert.Equal(t, first, second)
}
