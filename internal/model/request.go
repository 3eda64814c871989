package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Priority orders queued dispatch requests.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityHigh:   2,
	PriorityNormal: 1,
	PriorityLow:    0,
}

// Rank returns the scheduling weight of the priority; higher runs first.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// MaxSymptomLength bounds free-text symptom input before it enters the
// pipeline.
const MaxSymptomLength = 2000

// ConsultationRequest is the inbound request accepted by the API.
type ConsultationRequest struct {
	SessionID string          `json:"session_id" binding:"required"`
	Symptoms  string          `json:"symptoms"`
	Analysis  *AnalysisResult `json:"analysis" binding:"required"`
	Priority  Priority        `json:"priority" binding:"omitempty,priority"`
}

// Normalize truncates oversized symptom text and defaults the priority.
func (r *ConsultationRequest) Normalize() {
	r.Symptoms = strings.TrimSpace(r.Symptoms)
	if len(r.Symptoms) > MaxSymptomLength {
		// Back up to a rune boundary so the cut never splits a multi-byte
		// character.
		cut := MaxSymptomLength
		for cut > 0 && !utf8.RuneStart(r.Symptoms[cut]) {
			cut--
		}
		r.Symptoms = r.Symptoms[:cut]
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if r.Analysis != nil {
		r.Analysis.Normalize()
	}
}

// Validate rejects malformed input before it enters the pipeline.
func (r *ConsultationRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if r.Analysis == nil {
		return fmt.Errorf("analysis result is required")
	}
	switch r.Priority {
	case PriorityHigh, PriorityNormal, PriorityLow:
	default:
		return fmt.Errorf("unknown priority %q", r.Priority)
	}
	return r.Analysis.Validate()
}
