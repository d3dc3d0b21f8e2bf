package questionbank

import (
	"fmt"
	"strings"
)

// ErrMalformedQuestion indicates a question that cannot be served because a
// required field is missing or unusable.
type ErrMalformedQuestion struct {
	QuestionID string
	Reason     string
}

func (e *ErrMalformedQuestion) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("malformed question: %s", e.Reason)
	}
	return fmt.Sprintf("malformed question %q: %s", e.QuestionID, e.Reason)
}

// Validate checks that q carries everything the assessment needs.
// Returns *ErrMalformedQuestion on the first problem found.
func Validate(q *Question) error {
	malformed := func(reason string) error {
		return &ErrMalformedQuestion{QuestionID: q.ID, Reason: reason}
	}

	if strings.TrimSpace(q.ID) == "" {
		return malformed("id is empty")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return malformed("prompt is empty")
	}
	if !q.Level.Valid() {
		return malformed(fmt.Sprintf("invalid level %q", string(q.Level)))
	}
	if strings.TrimSpace(q.Category) == "" {
		return malformed("grammar category is empty")
	}
	if strings.TrimSpace(q.Topic) == "" {
		return malformed("grammar topic is empty")
	}

	answer := strings.TrimSpace(q.CorrectAnswer)
	if answer == "" {
		return malformed("correct answer is empty")
	}
	if q.IsMultipleChoice() && !hasOption(q.Options, answer) {
		return malformed(fmt.Sprintf("correct answer %q is not one of the options", answer))
	}
	return nil
}

// Partition splits questions into usable ones and the errors for those that
// were rejected. Duplicate IDs after the first occurrence are rejected.
func Partition(questions []Question) ([]Question, []error) {
	valid := make([]Question, 0, len(questions))
	var errs []error
	seen := make(map[string]bool, len(questions))

	for i := range questions {
		q := questions[i]
		if err := Validate(&q); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[q.ID] {
			errs = append(errs, &ErrMalformedQuestion{QuestionID: q.ID, Reason: "duplicate id"})
			continue
		}
		seen[q.ID] = true
		valid = append(valid, q)
	}
	return valid, errs
}

func hasOption(options []string, answer string) bool {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), answer) {
			return true
		}
	}
	return false
}
