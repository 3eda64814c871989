package validation

// terms.go holds the fixed vocabulary driving safety validation. Like the
// risk terms, these are data: deployments can override the prohibited
// phrase list through the safety config section.

// prohibitedReplacements maps prohibited phrases to safer paraphrases used
// during sanitization. Keys are matched case-insensitively.
var prohibitedReplacements = map[string]string{
	"i diagnose":              "the analysis may indicate",
	"you definitely have":     "you may have",
	"you have been diagnosed": "the screening suggests",
	"this is definitely":      "this could be",
	"i can confirm":           "the findings may suggest",
	"without a doubt":         "possibly",
	"i am certain":            "it appears possible",
	"this prescription":       "professional treatment options",
	"take this prescription":  "discuss treatment options",
	"prescription medication": "treatment a clinician may recommend",
	"i prescribe":             "a clinician may recommend",
	"recommended dosage":      "treatment guidance from a clinician",
	"take this medication":    "ask a clinician about treatment",
	"cure":                    "manage",
	"guaranteed to":           "may help to",
}

// defaultProhibitedPhrases is the scan list when the config provides none.
func defaultProhibitedPhrases() []string {
	phrases := make([]string, 0, len(prohibitedReplacements))
	for phrase := range prohibitedReplacements {
		phrases = append(phrases, phrase)
	}
	return phrases
}

// disclaimerVocabulary: a valid disclaimer needs at least minDisclaimerTerms
// of these plus one of the critical phrases.
var disclaimerVocabulary = []string{
	"disclaimer",
	"educational",
	"informational",
	"not a substitute",
	"professional",
	"consult",
	"qualified",
	"medical advice",
	"healthcare",
	"evaluation",
}

const minDisclaimerTerms = 4

// criticalDisclaimerPhrases: at least one must appear verbatim
// (case-insensitive).
var criticalDisclaimerPhrases = []string{
	"not a substitute for professional medical advice",
	"consult a qualified healthcare professional",
	"this is not a medical diagnosis",
}

// sectionMarkers map consultation sections to the heading/keyword cues used
// for structural detection.
var sectionMarkers = map[string][]string{
	"assessment":      {"condition assessment", "assessment", "findings"},
	"symptoms":        {"symptom correlation", "symptom analysis", "reported symptoms"},
	"recommendations": {"recommendations", "recommended actions", "next steps"},
	"urgency":         {"urgency level", "urgency"},
	"education":       {"educational information", "education", "about this condition"},
	"disclaimer":      {"medical disclaimer", "disclaimer", "important notice"},
}

// urgency keyword families for extracting a tier from free text.
var (
	immediateVocabulary = []string{
		"immediately",
		"within 24 hours",
		"emergency",
		"call 911",
		"same day",
		"do not delay",
	}
	urgentVocabulary = []string{
		"within the next few days",
		"urgent",
		"prompt evaluation",
		"as soon as possible",
		"this week",
	}
	moderateVocabulary = []string{
		"within 1-2 weeks",
		"within two weeks",
		"schedule an appointment",
	}
)

// delayPhrases must never appear in an immediate-tier consultation.
var delayPhrases = []string{
	"wait and see",
	"monitor for now",
	"no rush",
	"no need to worry",
	"wait a few weeks",
	"watch it for a while",
}

// uncertaintyVocabulary signals appropriately probabilistic phrasing.
var uncertaintyVocabulary = []string{
	"may",
	"might",
	"could",
	"possibly",
	"appears",
	"suggests",
	"consistent with",
	"potential",
}

// professionalVocabulary signals professional-consultation emphasis.
var professionalVocabulary = []string{
	"consult",
	"professional",
	"dermatologist",
	"doctor",
	"physician",
	"healthcare provider",
}

// criticalAlertText is prepended when the immediate-tier hard gate repairs
// a response.
const criticalAlertText = "IMPORTANT: The screening identified findings that should be " +
	"evaluated by a medical professional immediately, within 24 hours. " +
	"If symptoms worsen, contact emergency services."

// comprehensiveDisclaimer replaces missing or inadequate disclaimers.
const comprehensiveDisclaimer = "Medical Disclaimer: This information is educational and is " +
	"not a substitute for professional medical advice, diagnosis, or treatment. " +
	"The screening results are produced by an automated system and this is not a " +
	"medical diagnosis. Always consult a qualified healthcare professional about " +
	"any skin condition or health concern. If you believe you are experiencing a " +
	"medical emergency, call emergency services."
