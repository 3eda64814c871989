package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Severity represents the reported severity of a detected condition
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// RiskLevel is the coarse risk classification computed by the upstream
// image classifier. It is distinct from the urgency tier derived here.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// DetectedCondition is one classifier-output candidate with its medical
// metadata. Immutable once received; ordered by descending confidence.
type DetectedCondition struct {
	Condition         string   `json:"condition" binding:"required"`
	Confidence        float64  `json:"confidence" binding:"min=0,max=1"`
	Severity          Severity `json:"severity"`
	Category          string   `json:"category"`
	RequiresAttention bool     `json:"requires_attention"`
	Description       string   `json:"description"`
}

// ProcessingInfo carries classifier-side metadata, passed through untouched.
type ProcessingInfo struct {
	AnalysisID     string    `json:"analysis_id,omitempty"`
	ModelVersion   string    `json:"model_version,omitempty"`
	ProcessingTime float64   `json:"processing_time,omitempty"`
	Timestamp      time.Time `json:"timestamp,omitempty"`
}

// AnalysisResult is the classifier output consumed by the pipeline.
type AnalysisResult struct {
	Predictions       []DetectedCondition `json:"predictions" binding:"required,min=1,dive"`
	TopPrediction     string              `json:"top_prediction,omitempty"`
	OverallConfidence float64             `json:"overall_confidence,omitempty"`
	RiskLevel         RiskLevel           `json:"risk_level"`
	ProcessingInfo    ProcessingInfo      `json:"processing_info,omitempty"`
}

// Top returns the highest-confidence prediction.
// Callers must check HasPredictions first on untrusted input.
func (a *AnalysisResult) Top() DetectedCondition {
	return a.Predictions[0]
}

func (a *AnalysisResult) HasPredictions() bool {
	return len(a.Predictions) > 0
}

// Normalize enforces the invariant that TopPrediction and OverallConfidence
// mirror predictions[0].
func (a *AnalysisResult) Normalize() {
	if !a.HasPredictions() {
		return
	}
	a.TopPrediction = a.Predictions[0].Condition
	a.OverallConfidence = a.Predictions[0].Confidence
	if a.RiskLevel == "" {
		a.RiskLevel = RiskLow
	}
}

// Validate rejects malformed classifier output before it enters the pipeline.
func (a *AnalysisResult) Validate() error {
	if !a.HasPredictions() {
		return fmt.Errorf("analysis result has no predictions")
	}
	for i, p := range a.Predictions {
		if strings.TrimSpace(p.Condition) == "" {
			return fmt.Errorf("prediction %d has an empty condition name", i)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("prediction %d confidence %.3f outside [0,1]", i, p.Confidence)
		}
	}
	if a.OverallConfidence < 0 || a.OverallConfidence > 1 {
		return fmt.Errorf("overall confidence %.3f outside [0,1]", a.OverallConfidence)
	}
	switch a.RiskLevel {
	case "", RiskLow, RiskModerate, RiskHigh:
	default:
		return fmt.Errorf("unknown risk level %q", a.RiskLevel)
	}
	return nil
}

// Fingerprint returns a stable digest of the analysis plus symptom text,
// used as the consultation cache key.
func (a *AnalysisResult) Fingerprint(symptoms string) string {
	h := sha256.New()
	for _, p := range a.Predictions {
		fmt.Fprintf(h, "%s|%.4f|%s|%s|%t;", p.Condition, p.Confidence, p.Severity, p.Category, p.RequiresAttention)
	}
	fmt.Fprintf(h, "%s|%s", a.RiskLevel, strings.ToLower(strings.TrimSpace(symptoms)))
	return hex.EncodeToString(h.Sum(nil))
}
