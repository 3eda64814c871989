package validation

// Compliance scoring weights. The five components sum to 100.
const (
	weightDisclaimer   = 30
	weightNoDiagnostic = 25
	weightProfessional = 15
	weightContacts     = 15
	weightUncertainty  = 15

	// MinComplianceScore is the soft floor below which a response cannot be
	// accepted as safety validated.
	MinComplianceScore = 40
)

type scoreInput struct {
	disclaimerValid      bool
	prohibitedHits       int
	professionalMentions int
	contactsRequired     bool
	contactsPresent      bool
	uncertaintyMentions  int
}

// complianceScore combines the safety signals into a 0-100 metric.
func complianceScore(in scoreInput) int {
	score := 0

	if in.disclaimerValid {
		score += weightDisclaimer
	}

	// Each prohibited phrase erodes the diagnostic-language component.
	diagnostic := weightNoDiagnostic - in.prohibitedHits*10
	if diagnostic < 0 {
		diagnostic = 0
	}
	score += diagnostic

	score += scaled(in.professionalMentions, 3, weightProfessional)

	if !in.contactsRequired || in.contactsPresent {
		score += weightContacts
	}

	score += scaled(in.uncertaintyMentions, 4, weightUncertainty)

	return score
}

// scaled maps a count onto a weight, saturating at target occurrences.
func scaled(count, target, weight int) int {
	if count >= target {
		return weight
	}
	return count * weight / target
}
