package model

// UrgencyLevel represents how fast professional care should be sought.
// Levels form a total order: routine < moderate < urgent < immediate.
type UrgencyLevel string

const (
	UrgencyRoutine   UrgencyLevel = "routine"
	UrgencyModerate  UrgencyLevel = "moderate"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyImmediate UrgencyLevel = "immediate"
)

var urgencyRank = map[UrgencyLevel]int{
	UrgencyRoutine:   0,
	UrgencyModerate:  1,
	UrgencyUrgent:    2,
	UrgencyImmediate: 3,
}

// Rank returns the position of the level on the ordered scale.
func (u UrgencyLevel) Rank() int {
	return urgencyRank[u]
}

// AtLeast reports whether u is at or above min on the scale.
func (u UrgencyLevel) AtLeast(min UrgencyLevel) bool {
	return u.Rank() >= min.Rank()
}

// Escalate returns the higher of u and min. Urgency only ever escalates
// within one assessment, never downgrades.
func (u UrgencyLevel) Escalate(min UrgencyLevel) UrgencyLevel {
	if min.Rank() > u.Rank() {
		return min
	}
	return u
}

// UrgencyFromRisk is the total mapping from the classifier's coarse risk
// level onto the urgency scale.
func UrgencyFromRisk(r RiskLevel) UrgencyLevel {
	switch r {
	case RiskHigh:
		return UrgencyUrgent
	case RiskModerate:
		return UrgencyModerate
	default:
		return UrgencyRoutine
	}
}

// ContactType identifies a class of emergency contact.
type ContactType string

const (
	ContactEmergency     ContactType = "emergency"
	ContactDermatologist ContactType = "dermatologist"
	ContactUrgentCare    ContactType = "urgent_care"
)

// EmergencyContact is one entry from the fixed contact catalog.
type EmergencyContact struct {
	Type        ContactType `json:"type"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Description string      `json:"description"`
}

// UrgencyAssessment is the risk assessor's derived output. It is never
// persisted and is recomputed per request.
type UrgencyAssessment struct {
	Level               UrgencyLevel       `json:"level"`
	IsHighRisk          bool               `json:"is_high_risk"`
	Factors             []string           `json:"factors"`
	EmergencyIndicators []string           `json:"emergency_indicators"`
	Timeframe           string             `json:"timeframe"`
	Contacts            []EmergencyContact `json:"contacts,omitempty"`
	SpecialInstructions []string           `json:"special_instructions,omitempty"`
}
