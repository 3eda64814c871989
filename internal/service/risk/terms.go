package risk

import "github.com/jwalitptl/consult-api/internal/model"

// Terms holds the keyword sets driving urgency classification. They are
// configuration data, not control flow: deployments may override any list
// via the safety section of the config file.
type Terms struct {
	HighRiskConditions []string
	UrgentSymptoms     []string
	EvolutionCriteria  []string
	SystemicSymptoms   []string
}

// DefaultTerms returns the built-in classification vocabulary.
func DefaultTerms() Terms {
	return Terms{
		HighRiskConditions: []string{
			"melanoma",
			"carcinoma",
			"basal cell",
			"squamous cell",
			"malignant",
			"malignancy",
		},
		UrgentSymptoms: []string{
			"bleeding",
			"rapid growth",
			"growing quickly",
			"severe pain",
			"spreading",
			"ulceration",
			"open sore",
			"pus",
			"infection",
		},
		EvolutionCriteria: []string{
			"asymmetry",
			"asymmetric",
			"border irregularity",
			"irregular border",
			"color variation",
			"color change",
			"changing color",
			"diameter",
			"getting bigger",
			"evolution",
			"evolving",
		},
		SystemicSymptoms: []string{
			"fever",
			"weight loss",
			"swollen lymph",
			"night sweats",
			"fatigue",
		},
	}
}

// contactCatalog is the fixed emergency-contact set filtered by urgency tier.
var contactCatalog = []model.EmergencyContact{
	{
		Type:        model.ContactEmergency,
		Name:        "Emergency Services",
		Phone:       "911",
		Description: "Call immediately for any life-threatening situation",
	},
	{
		Type:        model.ContactDermatologist,
		Name:        "Dermatology Referral Line",
		Phone:       "1-800-DERM-CARE",
		Description: "Schedule an appointment with a board-certified dermatologist",
	},
	{
		Type:        model.ContactUrgentCare,
		Name:        "Urgent Care Locator",
		Phone:       "1-800-URGENT-1",
		Description: "Find a walk-in urgent care clinic near you",
	},
}

// contactTypesFor is the total mapping from final urgency to contact types.
func contactTypesFor(level model.UrgencyLevel) []model.ContactType {
	switch level {
	case model.UrgencyImmediate:
		return []model.ContactType{model.ContactEmergency, model.ContactDermatologist, model.ContactUrgentCare}
	case model.UrgencyUrgent:
		return []model.ContactType{model.ContactDermatologist, model.ContactUrgentCare}
	case model.UrgencyModerate:
		return []model.ContactType{model.ContactDermatologist}
	default:
		return nil
	}
}

// timeframeFor is the advisory care window for each urgency tier.
func timeframeFor(level model.UrgencyLevel) string {
	switch level {
	case model.UrgencyImmediate:
		return "Seek medical evaluation immediately, within 24 hours"
	case model.UrgencyUrgent:
		return "Arrange a medical evaluation within the next few days"
	case model.UrgencyModerate:
		return "Schedule a medical appointment within 1-2 weeks"
	default:
		return "Discuss at your next routine medical visit"
	}
}
