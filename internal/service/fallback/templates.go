package fallback

// templates.go holds the deterministic text the engine assembles
// consultations from. Condition and category keys mirror the upstream
// classifier's label catalog.

// assessmentBands are the four confidence-scaled assessment phrasings.
type assessmentBand struct {
	min      float64
	phrasing string
}

var assessmentBands = []assessmentBand{
	{0.8, "The image analysis found a strong visual match for %s (%.0f%% confidence). While this pattern is notable, only a qualified clinician examining the area in person can determine what it actually is."},
	{0.6, "The image analysis suggests the area may be consistent with %s (%.0f%% confidence). Several conditions can share this appearance, so a professional evaluation is important."},
	{0.4, "The image analysis found some features that could suggest %s (%.0f%% confidence), though the match is uncertain. A clinician can examine the area and provide a reliable assessment."},
	{0.0, "The image analysis could not confidently match the area to a specific condition (best candidate: %s at %.0f%% confidence). An in-person examination is the appropriate next step."},
}

// conditionRecommendations are keyed by lowercase condition-name substring.
var conditionRecommendations = []struct {
	key  string
	recs []string
}{
	{"melanoma", []string{
		"Arrange a dermatology evaluation for the lesion; suspicious pigmented lesions are assessed with priority.",
		"Photograph the lesion with a ruler for scale so changes can be tracked.",
		"Avoid sun exposure on the area and do not attempt any home removal.",
	}},
	{"carcinoma", []string{
		"Arrange a dermatology evaluation; persistent or non-healing lesions should be examined promptly.",
		"Protect the area from further sun exposure.",
	}},
	{"eczema", []string{
		"Keep the area moisturized with a fragrance-free emollient.",
		"Avoid known triggers such as harsh soaps and very hot water.",
		"Consult a clinician if the area weeps, crusts, or spreads.",
	}},
	{"psoriasis", []string{
		"Moisturize regularly and avoid picking at plaques.",
		"Discuss long-term management options with a dermatologist.",
	}},
	{"acne", []string{
		"Cleanse gently twice daily; avoid aggressive scrubbing.",
		"Avoid squeezing lesions, which can cause scarring.",
		"Consult a clinician if inflammation is painful or widespread.",
	}},
	{"dermatitis", []string{
		"Identify and avoid the suspected irritant or allergen.",
		"A clinician can help pinpoint triggers if the reaction recurs.",
	}},
	{"rosacea", []string{
		"Track flare triggers such as heat, alcohol, and spicy food.",
		"Use gentle, non-irritating skin-care products.",
	}},
	{"fungal", []string{
		"Keep the area clean and dry; fungi thrive in moisture.",
		"Avoid sharing towels or clothing while the area persists.",
		"Consult a clinician if the area spreads or does not improve.",
	}},
	{"seborrheic keratosis", []string{
		"These growths are usually harmless, but any change in appearance deserves professional review.",
	}},
	{"nevus", []string{
		"Monitor the mole for asymmetry, border, color, or size changes.",
		"Have any changing mole reviewed by a dermatologist.",
	}},
}

// urgencyRecommendations always lead the list for elevated tiers.
var urgencyRecommendations = map[string][]string{
	"immediate": {
		"Seek professional medical evaluation immediately, within 24 hours.",
		"If symptoms escalate rapidly, contact emergency services.",
	},
	"urgent": {
		"Arrange a dermatology appointment within the next few days.",
	},
	"moderate": {
		"Schedule a medical appointment within the next 1-2 weeks.",
	},
}

// categoryEducation is keyed by guidance category derived from the
// condition name.
var categoryEducation = map[string]string{
	"oncological": "Skin cancers are among the most treatable cancers when found early. " +
		"Clinicians evaluate lesions using the ABCDE criteria: asymmetry, border " +
		"irregularity, color variation, diameter over 6mm, and evolution over time. " +
		"A biopsy is the only way to establish what a lesion actually is.",
	"inflammatory": "Inflammatory skin conditions are common and often flare in response to " +
		"triggers such as stress, climate, or contact irritants. They are typically " +
		"manageable with consistent skin care and, when needed, treatment guided by a clinician.",
	"infectious": "Skin infections can be bacterial, fungal, or viral, and each responds to " +
		"different treatment. Good hygiene limits spread, but persistent infections " +
		"usually need professional treatment to fully resolve.",
	"autoimmune": "Immune-mediated skin conditions are chronic: they tend to cycle between " +
		"flares and remission. Modern management, guided by a dermatologist, can keep " +
		"most people largely symptom-free.",
	"benign": "Many skin growths are benign and require no treatment. The value of a " +
		"professional check is confirming that a growth is what it appears to be, and " +
		"establishing a baseline so future changes are easy to spot.",
	"general": "Skin findings can look similar across very different conditions, which is why " +
		"photographs and automated screening are a starting point rather than an answer. " +
		"A clinician combines the visual findings with your history for a reliable evaluation.",
}

var categoryTerms = []struct {
	category string
	terms    []string
}{
	{"oncological", []string{"melanoma", "carcinoma", "malignant"}},
	{"inflammatory", []string{"eczema", "dermatitis", "rosacea", "acne"}},
	{"infectious", []string{"fungal", "infection", "cellulitis", "impetigo", "wart"}},
	{"autoimmune", []string{"psoriasis", "lupus", "vitiligo"}},
	{"benign", []string{"seborrheic keratosis", "dermatofibroma", "nevus", "mole"}},
}

// symptom heuristics for the correlation paragraph.
var (
	severityWords = []string{"severe", "intense", "unbearable", "painful", "worse", "worsening", "mild", "slight"}
	durationWords = []string{"hour", "day", "week", "month", "year", "recently", "suddenly"}
	locationWords = []string{"face", "scalp", "neck", "chest", "back", "arm", "leg", "hand", "foot", "shoulder", "stomach"}
)

const fallbackDisclaimer = "Medical Disclaimer: This consultation was generated by an automated " +
	"offline system using the screening results alone. It is educational and is not a " +
	"substitute for professional medical advice, diagnosis, or treatment. This is not a " +
	"medical diagnosis. Always consult a qualified healthcare professional about any skin " +
	"condition or health concern. If you believe you are experiencing a medical emergency, " +
	"call emergency services."

const minimalConsultation = "The screening did not return any usable findings for this image. " +
	"This can happen with image quality issues or uncommon presentations. Please consult a " +
	"qualified healthcare professional for an in-person evaluation of any skin concern. This " +
	"automated message is not a substitute for professional medical advice and is not a medical diagnosis."
