package model

import "time"

// Consultation is the natural-language consultation body.
type Consultation struct {
	ConditionAssessment string       `json:"condition_assessment"`
	SymptomCorrelation  string       `json:"symptom_correlation,omitempty"`
	Recommendations     []string     `json:"recommendations"`
	UrgencyLevel        UrgencyLevel `json:"urgency_level"`
	EducationalInfo     string       `json:"educational_info,omitempty"`
	MedicalDisclaimer   string       `json:"medical_disclaimer"`
}

// ResponseMetadata describes how a consultation was produced.
type ResponseMetadata struct {
	ModelUsed       string        `json:"model_used"`
	ProcessingTime  time.Duration `json:"processing_time"`
	ConfidenceScore float64       `json:"confidence_score"`
	ComplianceScore int           `json:"compliance_score"`
	RetryCount      int           `json:"retry_count,omitempty"`
	FallbackUsed    bool          `json:"fallback_used"`
	SafetyValidated bool          `json:"safety_validated"`
}

// ConsultationResponse is the terminal artifact returned to the caller.
// EmergencyContacts is present iff the urgency tier warrants it.
type ConsultationResponse struct {
	SessionID         string             `json:"session_id"`
	Consultation      Consultation       `json:"consultation"`
	Metadata          ResponseMetadata   `json:"metadata"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts,omitempty"`
}

// ConsultationEvent is published to the message broker after a consultation
// completes. It carries routing metadata only, never the consultation text.
type ConsultationEvent struct {
	SessionID       string       `json:"session_id"`
	RequestID       string       `json:"request_id"`
	Urgency         UrgencyLevel `json:"urgency"`
	FallbackUsed    bool         `json:"fallback_used"`
	SafetyValidated bool         `json:"safety_validated"`
	ComplianceScore int          `json:"compliance_score"`
	CompletedAt     time.Time    `json:"completed_at"`
}
