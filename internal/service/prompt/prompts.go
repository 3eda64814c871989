package prompt

// prompts.go holds the fixed prompt text used by the builder. Keeping the
// clauses in one place makes them easy to review with clinical advisors
// without touching the assembly logic.

const (
	systemRole = "You are a medical information assistant supporting a dermatology " +
		"screening tool. You provide educational information about skin conditions " +
		"detected by an image classifier. You are not a physician and you never " +
		"provide a diagnosis."

	systemSafetyPreamble = "Follow these rules without exception: " +
		"your response is educational and is not a substitute for professional " +
		"medical advice; never use definitive diagnostic language; use " +
		"probabilistic phrasing such as \"may be consistent with\" or " +
		"\"could suggest\"; never recommend prescription medication or dosages; " +
		"always advise consulting a qualified healthcare professional."

	immediateProtocol = "URGENT PROTOCOL: the screening indicates findings that " +
		"warrant evaluation within 24 hours. Open your response by clearly " +
		"advising immediate professional care, repeat the advice in your " +
		"recommendations, and include the emergency contact information verbatim."

	urgentProtocol = "PRIORITY PROTOCOL: the screening indicates findings that " +
		"should be evaluated by a dermatologist within the next few days. Make " +
		"the recommended timeframe explicit."
)

// safetyClauses are attached to every prompt and checked by the validator.
var safetyClauses = []string{
	"This response is not a substitute for professional medical advice, diagnosis, or treatment.",
	"Do not use definitive diagnostic language; describe findings probabilistically.",
	"Do not recommend prescription medications, dosages, or specific treatments.",
	"Always direct the user to consult a qualified healthcare professional.",
	"If symptoms suggest an emergency, direct the user to emergency services.",
}

// categoryGuidance is selected by substring match on the top condition name.
var categoryGuidance = map[string]string{
	"oncological": "Explain, without alarmism, why suspicious pigmented lesions are evaluated " +
		"promptly, describe the ABCDE warning signs, and stress that only a biopsy " +
		"can establish what a lesion actually is.",
	"inflammatory": "Describe common triggers and general skin-care measures for inflammatory " +
		"skin conditions, and note that persistent or worsening symptoms deserve " +
		"professional assessment.",
	"infectious": "Explain general hygiene measures that limit spread, and note that " +
		"infections of the skin often need professional treatment to resolve.",
	"autoimmune": "Explain that immune-mediated skin conditions are chronic and managed, not " +
		"cured, and that a dermatologist can tailor long-term care.",
	"general": "Provide balanced educational information about the detected condition and " +
		"general skin-health guidance.",
}

// categoryTerms maps condition-name substrings to a guidance category.
var categoryTerms = []struct {
	category string
	terms    []string
}{
	{"oncological", []string{"melanoma", "carcinoma", "malignant", "nevus"}},
	{"inflammatory", []string{"eczema", "dermatitis", "rosacea", "acne"}},
	{"infectious", []string{"fungal", "infection", "cellulitis", "impetigo", "wart"}},
	{"autoimmune", []string{"psoriasis", "lupus", "vitiligo"}},
}

// guidanceFor returns the category-specific instruction block for a
// condition name. Unmatched names get the general guidance.
func guidanceFor(condition string) (string, string) {
	for _, entry := range categoryTerms {
		for _, term := range entry.terms {
			if containsFold(condition, term) {
				return entry.category, categoryGuidance[entry.category]
			}
		}
	}
	return "general", categoryGuidance["general"]
}
