// Package events publishes assessment lifecycle events to other services.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/englevel/internal/cefr"
)

// Event types. The type doubles as the routing key on topic exchanges.
const (
	TypeAssessmentStarted   = "assessment.started"
	TypeAssessmentCompleted = "assessment.completed"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// AssessmentStarted is the payload of TypeAssessmentStarted.
type AssessmentStarted struct {
	SessionID    string `json:"sessionId"`
	LearnerID    string `json:"learnerId,omitempty"`
	MaxQuestions int    `json:"maxQuestions"`
}

// AssessmentCompleted is the payload of TypeAssessmentCompleted.
type AssessmentCompleted struct {
	SessionID         string     `json:"sessionId"`
	LearnerID         string     `json:"learnerId,omitempty"`
	RecommendedLevel  cefr.Level `json:"recommendedLevel"`
	Confidence        float64    `json:"confidence"`
	Score             float64    `json:"score"`
	QuestionsAnswered int        `json:"questionsAnswered"`
	DurationSeconds   float64    `json:"durationSeconds"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns recorded events with the given type.
func (r *Recorder) OfType(typ string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
