package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/questionbank"
)

// QueryOpts configures attempt queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	After int64     // sequence > After
	From  time.Time // completed_at >= From
	To    time.Time // completed_at <= To
}

// AttemptRecord is a finished assessment as persisted.
type AttemptRecord struct {
	Sequence          int64           `json:"sequence"`
	SessionID         string          `json:"sessionId"`
	LearnerID         string          `json:"learnerId"`
	RecommendedLevel  cefr.Level      `json:"recommendedLevel"`
	Confidence        float64         `json:"confidence"`
	Score             float64         `json:"score"`
	WeightedScore     float64         `json:"weightedScore"`
	TotalPossible     float64         `json:"totalPossibleScore"`
	QuestionsAnswered int             `json:"questionsAnswered"`
	FoundationPenalty bool            `json:"foundationPenalty"`
	LevelProgression  []cefr.Level    `json:"levelProgression"`
	Result            json.RawMessage `json:"result,omitempty"`
	StartedAt         time.Time       `json:"startedAt"`
	CompletedAt       time.Time       `json:"completedAt"`
	Answers           []AnswerRecord  `json:"answers,omitempty"`
}

// AnswerRecord is one graded answer of a persisted attempt.
type AnswerRecord struct {
	Sequence    int64      `json:"sequence"`
	Position    int        `json:"position"`
	QuestionID  string     `json:"questionId"`
	Level       cefr.Level `json:"level"`
	Answer      string     `json:"answer"`
	Correct     bool       `json:"correct"`
	Points      float64    `json:"points"`
	Category    string     `json:"grammarCategory"`
	Topic       string     `json:"grammarTopic"`
	LevelBefore cefr.Level `json:"levelBefore"`
	LevelAfter  cefr.Level `json:"levelAfter"`
	AnsweredAt  time.Time  `json:"answeredAt"`
}

// AttemptRepo persists finished assessments.
type AttemptRepo interface {
	// SaveAttempt stores the attempt and its answers in one transaction.
	SaveAttempt(ctx context.Context, rec *AttemptRecord) error

	// GetAttempt returns the attempt with its answers, or nil if none exists.
	GetAttempt(ctx context.Context, sessionID string) (*AttemptRecord, error)

	// ListByLearner returns a learner's attempts, newest first, without answers.
	ListByLearner(ctx context.Context, learnerID string, opts QueryOpts) ([]AttemptRecord, error)

	// RecentQuestionIDs returns the IDs of the learner's most recently
	// answered questions, newest first, without duplicates.
	RecentQuestionIDs(ctx context.Context, learnerID string, limit int) ([]string, error)
}

// QuestionRepo stores a question bank and supplies assessment pools from it.
type QuestionRepo interface {
	questionbank.Supplier

	// Import inserts questions, skipping IDs that already exist. Returns the
	// number inserted.
	Import(ctx context.Context, questions []questionbank.Question) (int, error)

	// Count returns the number of stored questions.
	Count(ctx context.Context) (int, error)
}

// SnapshotRepo stores serialized in-progress sessions.
type SnapshotRepo interface {
	// Save upserts the snapshot for sessionID.
	Save(ctx context.Context, sessionID string, data []byte, updatedAt time.Time) error

	// Load returns the snapshot and when it was last saved, or nil data if
	// none exists.
	Load(ctx context.Context, sessionID string) ([]byte, time.Time, error)

	// Delete removes the snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, sessionID string) error

	// Prune deletes snapshots last updated before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
