package validation

import (
	"regexp"
	"strings"
)

var (
	markupPattern   = regexp.MustCompile("[*_`#]+")
	htmlTagPattern  = regexp.MustCompile(`<[^>]+>`)
	multiSpace      = regexp.MustCompile(`[ \t]{2,}`)
	multiBlankLines = regexp.MustCompile(`\n{3,}`)
)

// sanitizer scrubs model output: markup removal, prohibited-phrase
// replacement and professional-consultation phrasing enforcement.
type sanitizer struct {
	prohibited []string
	patterns   map[string]*regexp.Regexp
}

func newSanitizer(prohibited []string) *sanitizer {
	s := &sanitizer{
		prohibited: prohibited,
		patterns:   make(map[string]*regexp.Regexp, len(prohibited)),
	}
	for _, phrase := range prohibited {
		s.patterns[phrase] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
	}
	return s
}

// clean strips markup and normalizes whitespace.
func (s *sanitizer) clean(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = markupPattern.ReplaceAllString(text, "")
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// findProhibited returns every prohibited phrase present in text.
func (s *sanitizer) findProhibited(text string) []string {
	var found []string
	for _, phrase := range s.prohibited {
		if s.patterns[phrase].MatchString(text) {
			found = append(found, phrase)
		}
	}
	return found
}

// replaceProhibited swaps each prohibited phrase for its safer paraphrase.
// Phrases without a configured paraphrase are removed outright.
func (s *sanitizer) replaceProhibited(text string) string {
	for _, phrase := range s.prohibited {
		replacement := prohibitedReplacements[phrase]
		text = s.patterns[phrase].ReplaceAllString(text, replacement)
	}
	return multiSpace.ReplaceAllString(text, " ")
}

// enforceProfessionalPhrasing appends consultation advice to any
// recommendation that lacks it.
func (s *sanitizer) enforceProfessionalPhrasing(recommendations []string) []string {
	out := make([]string, 0, len(recommendations))
	for _, rec := range recommendations {
		if rec == "" {
			continue
		}
		if !containsAny(strings.ToLower(rec), professionalVocabulary) {
			rec = strings.TrimRight(rec, ".") + "; discuss this with a healthcare professional."
		}
		out = append(out, rec)
	}
	return out
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func countOccurrences(text string, terms []string) int {
	var count int
	for _, term := range terms {
		count += strings.Count(text, term)
	}
	return count
}
