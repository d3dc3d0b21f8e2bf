package questionbank

import (
	"context"
	"sort"

	"github.com/abhisek/englevel/internal/cefr"
)

// Bank is an in-memory Supplier. It is immutable after construction and safe
// for concurrent use.
type Bank struct {
	questions []Question
	byID      map[string]int
	rejected  []error
}

// NewBank returns a bank over a copy of questions. The questions are not
// validated here; the assessment skips malformed ones itself.
func NewBank(questions []Question) *Bank {
	b := &Bank{
		questions: make([]Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	copy(b.questions, questions)
	for i, q := range b.questions {
		b.byID[q.ID] = i
	}
	return b
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// All returns a copy of every question in load order.
func (b *Bank) All() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Get looks up a question by ID.
func (b *Bank) Get(id string) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

// Rejected returns the validation errors for questions dropped at load time.
func (b *Bank) Rejected() []error {
	return b.rejected
}

// Topics returns the number of distinct grammar topics in the bank.
func (b *Bank) Topics() int {
	seen := make(map[string]bool)
	for _, q := range b.questions {
		seen[q.Topic] = true
	}
	return len(seen)
}

// Questions implements Supplier. Results are ordered by distance from
// target, then by ID.
func (b *Bank) Questions(ctx context.Context, target cefr.Level, exclude []string) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	out := make([]Question, 0, len(b.questions))
	for _, q := range b.questions {
		if skip[q.ID] {
			continue
		}
		out = append(out, q)
	}
	SortByDistance(out, target)
	return out, nil
}

// SortByDistance orders questions by level distance from target, then by ID.
// Questions with an invalid level sort last.
func SortByDistance(qs []Question, target cefr.Level) {
	dist := func(q Question) int {
		if !q.Level.Valid() || !target.Valid() {
			return cefr.Count()
		}
		return cefr.Distance(q.Level, target)
	}
	sort.SliceStable(qs, func(i, j int) bool {
		di, dj := dist(qs[i]), dist(qs[j])
		if di != dj {
			return di < dj
		}
		return qs[i].ID < qs[j].ID
	})
}
