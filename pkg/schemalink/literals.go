package schemalink

import (
	"regexp"
	"strings"
)

var (
	quotedPattern  = regexp.MustCompile(`'([^']+)'|"([^"]+)"`)
	numberPattern  = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	capitalPattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
)

// questionWords are capitalized tokens that open or glue questions rather
// than naming data values. Membership is checked lowercased.
var questionWords = map[string]struct{}{
	"how": {}, "what": {}, "which": {}, "who": {}, "whose": {}, "where": {},
	"when": {}, "why": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"do": {}, "does": {}, "did": {}, "has": {}, "have": {}, "had": {},
	"list": {}, "show": {}, "give": {}, "find": {}, "name": {}, "count": {},
	"please": {}, "tell": {}, "the": {}, "a": {}, "an": {}, "of": {},
	"in": {}, "on": {}, "for": {}, "to": {}, "from": {}, "by": {},
	"with": {}, "and": {}, "or": {}, "per": {}, "top": {}, "all": {},
	"each": {}, "every": {}, "between": {}, "among": {}, "during": {},
}

// ExtractLiterals pulls candidate data values out of a question: quoted
// substrings, numeric tokens, and runs of capitalized words. Consecutive
// capitalized tokens join into one literal so multi-word proper names match
// stored values whole. The heuristic is lexical only and over-extracts on
// unusual casing; downstream index lookups tolerate the noise.
func ExtractLiterals(question string) []string {
	var literals []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		literals = append(literals, s)
	}

	// Quoted regions are taken verbatim and removed so their contents are
	// not re-tokenized below.
	stripped := quotedPattern.ReplaceAllStringFunc(question, func(m string) string {
		add(strings.Trim(m, `'"`))
		return " "
	})

	for _, m := range numberPattern.FindAllString(stripped, -1) {
		add(m)
	}

	var run []string
	flush := func() {
		if len(run) > 0 {
			add(strings.Join(run, " "))
			run = nil
		}
	}
	for _, token := range strings.Fields(stripped) {
		cleaned := strings.Trim(token, ",.;:!?()[]")
		cleaned = strings.TrimSuffix(cleaned, "'s")
		if capitalPattern.MatchString(cleaned) && !isQuestionWord(cleaned) {
			run = append(run, cleaned)
			continue
		}
		flush()
	}
	flush()

	return literals
}

func isQuestionWord(token string) bool {
	_, ok := questionWords[strings.ToLower(token)]
	return ok
}
