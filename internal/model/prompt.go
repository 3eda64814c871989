package model

import "fmt"

// PromptContext carries the inputs a prompt was built from, for downstream
// validation and fallback generation.
type PromptContext struct {
	Predictions []DetectedCondition `json:"predictions"`
	Symptoms    string              `json:"symptoms,omitempty"`
	RiskLevel   RiskLevel           `json:"risk_level"`
	Urgency     UrgencyLevel        `json:"urgency"`
}

// MedicalPrompt is the structured request sent to the generative service.
// Built fresh per request; never reused across requests with different inputs.
type MedicalPrompt struct {
	SystemInstruction  string        `json:"system_instruction"`
	UserPrompt         string        `json:"user_prompt"`
	SafetyInstructions []string      `json:"safety_instructions"`
	Context            PromptContext `json:"context"`
}

// Validate enforces the non-negotiable prompt invariants: every downstream
// consumer may assume a validated prompt has non-empty instruction, body and
// safety clauses.
func (p *MedicalPrompt) Validate() error {
	if p.SystemInstruction == "" {
		return fmt.Errorf("medical prompt has empty system instruction")
	}
	if p.UserPrompt == "" {
		return fmt.Errorf("medical prompt has empty user prompt")
	}
	if len(p.SafetyInstructions) == 0 {
		return fmt.Errorf("medical prompt has no safety instructions")
	}
	return nil
}
