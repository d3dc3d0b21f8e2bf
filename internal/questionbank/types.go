package questionbank

import (
	"context"

	"github.com/abhisek/englevel/internal/cefr"
)

// Question is a single leveled grammar item.
type Question struct {
	// ID uniquely identifies the question across banks.
	ID string `json:"id"`

	// Prompt is the text shown to the learner, e.g. "She ___ to work every day."
	Prompt string `json:"prompt"`

	// Options holds the choices for multiple-choice items. Nil for free text.
	Options []string `json:"options,omitempty"`

	// CorrectAnswer is the canonical answer. For multiple choice it is the
	// text of one of the options.
	CorrectAnswer string `json:"correctAnswer,omitempty"`

	// Level is the CEFR band the item targets.
	Level cefr.Level `json:"level"`

	// Category is the broad grammar area, e.g. "tenses".
	Category string `json:"grammarCategory"`

	// Topic is the specific grammar point, e.g. "present-perfect-experience".
	// An assessment serves at most one question per topic.
	Topic string `json:"grammarTopic"`

	// Explanation is an optional note shown after answering.
	Explanation string `json:"explanation,omitempty"`
}

// IsMultipleChoice reports whether the question has options.
func (q *Question) IsMultipleChoice() bool {
	return len(q.Options) > 0
}

// Public returns a copy of q safe to send to a learner: the correct answer
// and explanation are stripped.
func (q Question) Public() Question {
	q.CorrectAnswer = ""
	q.Explanation = ""
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	return q
}

// Supplier provides candidate questions for an assessment.
type Supplier interface {
	// Questions returns the questions available for an assessment starting
	// at target, omitting any whose ID appears in exclude.
	Questions(ctx context.Context, target cefr.Level, exclude []string) ([]Question, error)
}
