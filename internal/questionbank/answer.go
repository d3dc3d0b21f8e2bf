package questionbank

import "strings"

// CheckAnswer reports whether submitted matches the question's correct
// answer. Comparison trims surrounding whitespace and ignores case.
func CheckAnswer(submitted string, q *Question) bool {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return false
	}
	return strings.EqualFold(submitted, strings.TrimSpace(q.CorrectAnswer))
}
