// Package attempt runs placement assessments for learners. It supplies the
// question pool, keeps in-progress sessions in a cache between calls, and
// hands finished attempts to the persistence sink and the event publisher.
package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/events"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/sessioncache"
	"github.com/abhisek/englevel/internal/store"
)

// DefaultExcludeRecent is how many recently answered questions are kept out
// of a learner's next pool.
const DefaultExcludeRecent = 60

// Sink stores finished attempts.
type Sink interface {
	SaveAttempt(ctx context.Context, rec *store.AttemptRecord) error
}

// HistoryReader reads a learner's past attempts.
type HistoryReader interface {
	ListByLearner(ctx context.Context, learnerID string, opts store.QueryOpts) ([]store.AttemptRecord, error)
	RecentQuestionIDs(ctx context.Context, learnerID string, limit int) ([]string, error)
}

// Options configures a Service.
type Options struct {
	MaxQuestions  int
	MatchLevel    bool
	ExcludeRecent int // 0 uses DefaultExcludeRecent, negative disables exclusion

	// Seed makes question selection reproducible. Zero seeds randomly.
	Seed uint64

	Now func() time.Time
}

// Deps are the collaborators of a Service. Supplier, Sink and Cache are
// required.
type Deps struct {
	Supplier  questionbank.Supplier
	Sink      Sink
	History   HistoryReader
	Cache     sessioncache.Cache
	Publisher events.Publisher
	Logger    *zap.Logger
}

// Service manages assessment sessions.
type Service struct {
	supplier  questionbank.Supplier
	sink      Sink
	history   HistoryReader
	cache     sessioncache.Cache
	publisher events.Publisher
	logger    *zap.Logger
	opts      Options
	locks     *keyedMutex
	newID     func() string
	started   atomic.Uint64
}

// NewService creates a Service.
func NewService(deps Deps, opts Options) (*Service, error) {
	if deps.Supplier == nil {
		return nil, errors.New("attempt service: supplier is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("attempt service: sink is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("attempt service: cache is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = placement.DefaultMaxQuestions
	}
	if opts.ExcludeRecent == 0 {
		opts.ExcludeRecent = DefaultExcludeRecent
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		supplier:  deps.Supplier,
		sink:      deps.Sink,
		history:   deps.History,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		opts:      opts,
		locks:     newKeyedMutex(),
		newID:     func() string { return uuid.New().String() },
	}, nil
}

// View is the client-facing state of a session. Question never carries the
// correct answer.
type View struct {
	SessionID string                 `json:"sessionId"`
	LearnerID string                 `json:"learnerId,omitempty"`
	State     placement.State        `json:"state"`
	Question  *questionbank.Question `json:"question,omitempty"`
	Answered  bool                   `json:"answered"`
	Progress  placement.Progress     `json:"progress"`
	Result    *placement.Result      `json:"result,omitempty"`
}

// AnswerResult is returned by Answer.
type AnswerResult struct {
	Outcome placement.Outcome `json:"outcome"`
	View
}

// Start begins a new assessment for learnerID, which may be empty for
// anonymous attempts.
func (s *Service) Start(ctx context.Context, learnerID string) (*View, error) {
	pool, excluded, err := s.pool(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	sess := placement.New(s.sessionOptions())
	err = sess.Start(pool)
	var insufficient *placement.ErrInsufficientQuestionPool
	if errors.As(err, &insufficient) && excluded > 0 {
		s.logger.Info("pool too small after excluding recent questions, using full pool",
			zap.String("learner_id", learnerID),
			zap.Int("excluded", excluded),
			zap.Int("topics", insufficient.Topics))
		pool, err = s.supplier.Questions(ctx, cefr.Baseline, nil)
		if err != nil {
			return nil, fmt.Errorf("supply questions: %w", err)
		}
		sess = placement.New(s.sessionOptions())
		err = sess.Start(pool)
	}
	if err != nil {
		return nil, err
	}
	if skipped := sess.Skipped(); len(skipped) > 0 {
		s.logger.Warn("skipped malformed questions", zap.Strings("question_ids", skipped))
	}

	entry := &sessioncache.Entry{
		SessionID: s.newID(),
		LearnerID: learnerID,
		CreatedAt: s.opts.Now(),
		Snapshot:  sess.Snapshot(),
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("cache session: %w", err)
	}

	s.logger.Info("assessment started",
		zap.String("session_id", entry.SessionID),
		zap.String("learner_id", learnerID),
		zap.Int("max_questions", sess.MaxQuestions()))
	s.publish(ctx, events.TypeAssessmentStarted, events.AssessmentStarted{
		SessionID:    entry.SessionID,
		LearnerID:    learnerID,
		MaxQuestions: sess.MaxQuestions(),
	})

	return view(entry, sess), nil
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, sessionID string) (*View, error) {
	entry, sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view(entry, sess), nil
}

// Answer grades answer against the pending question and moves to the next
// one. When the budget or the queue runs out the attempt is completed and
// persisted, and the returned view carries the result.
func (s *Service) Answer(ctx context.Context, sessionID, answer string) (*AnswerResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	entry, sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := sess.SubmitAnswer(answer)
	if err != nil {
		return nil, err
	}
	done, err := sess.Advance()
	if err != nil {
		return nil, err
	}

	if done {
		if err := s.finish(ctx, entry, sess); err != nil {
			return nil, err
		}
	} else if err := s.save(ctx, entry, sess); err != nil {
		return nil, err
	}

	return &AnswerResult{Outcome: outcome, View: *view(entry, sess)}, nil
}

// Complete finishes the attempt early and returns its result.
func (s *Service) Complete(ctx context.Context, sessionID string) (*placement.Result, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	entry, sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Complete(); err != nil {
		return nil, err
	}
	if err := s.finish(ctx, entry, sess); err != nil {
		return nil, err
	}
	return sess.Result(), nil
}

// Discard drops a session. Finished attempts stay persisted.
func (s *Service) Discard(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if _, err := s.cache.Get(ctx, sessionID); err != nil {
		if errors.Is(err, sessioncache.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("load session: %w", err)
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("assessment discarded", zap.String("session_id", sessionID))
	return nil
}

// History returns a learner's persisted attempts, newest first.
func (s *Service) History(ctx context.Context, learnerID string, opts store.QueryOpts) ([]store.AttemptRecord, error) {
	if s.history == nil {
		return nil, errors.New("attempt history is not available")
	}
	recs, err := s.history.ListByLearner(ctx, learnerID, opts)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return recs, nil
}

func (s *Service) sessionOptions() placement.Options {
	opts := placement.Options{
		MaxQuestions: s.opts.MaxQuestions,
		MatchLevel:   s.opts.MatchLevel,
		Now:          s.opts.Now,
	}
	if s.opts.Seed != 0 {
		// One stream per session, derived from the seed and the start count.
		opts.Rand = placement.NewRand(s.opts.Seed + s.started.Add(1))
	}
	return opts
}

// pool fetches candidate questions, excluding the learner's recent ones.
func (s *Service) pool(ctx context.Context, learnerID string) ([]questionbank.Question, int, error) {
	var exclude []string
	if learnerID != "" && s.history != nil && s.opts.ExcludeRecent > 0 {
		ids, err := s.history.RecentQuestionIDs(ctx, learnerID, s.opts.ExcludeRecent)
		if err != nil {
			return nil, 0, fmt.Errorf("recent questions: %w", err)
		}
		exclude = ids
	}
	pool, err := s.supplier.Questions(ctx, cefr.Baseline, exclude)
	if err != nil {
		return nil, 0, fmt.Errorf("supply questions: %w", err)
	}
	return pool, len(exclude), nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*sessioncache.Entry, *placement.Session, error) {
	entry, err := s.cache.Get(ctx, sessionID)
	if errors.Is(err, sessioncache.ErrNotFound) {
		return nil, nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	sess, err := placement.Restore(entry.Snapshot, placement.Options{Now: s.opts.Now})
	if err != nil {
		return nil, nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}
	return entry, sess, nil
}

func (s *Service) save(ctx context.Context, entry *sessioncache.Entry, sess *placement.Session) error {
	entry.Snapshot = sess.Snapshot()
	if err := s.cache.Put(ctx, entry); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}

// finish persists a completed session. The cache keeps the completed
// snapshot so the result stays readable until the entry expires.
func (s *Service) finish(ctx context.Context, entry *sessioncache.Entry, sess *placement.Session) error {
	res := sess.Result()
	rec, err := Record(entry.SessionID, entry.LearnerID, res, sess.History())
	if err != nil {
		return err
	}
	if err := s.sink.SaveAttempt(ctx, rec); err != nil {
		return &ErrPersist{SessionID: entry.SessionID, Err: err}
	}
	if err := s.save(ctx, entry, sess); err != nil {
		// The attempt is stored; a stale cache entry only affects reads.
		s.logger.Warn("cache completed session", zap.String("session_id", entry.SessionID), zap.Error(err))
	}

	s.logger.Info("assessment completed",
		zap.String("session_id", entry.SessionID),
		zap.String("learner_id", entry.LearnerID),
		zap.String("level", string(res.RecommendedLevel)),
		zap.Float64("confidence", res.Confidence),
		zap.Float64("score", res.Score),
		zap.Int("answered", res.QuestionsAnswered))
	s.publish(ctx, events.TypeAssessmentCompleted, events.AssessmentCompleted{
		SessionID:         entry.SessionID,
		LearnerID:         entry.LearnerID,
		RecommendedLevel:  res.RecommendedLevel,
		Confidence:        res.Confidence,
		Score:             res.Score,
		QuestionsAnswered: res.QuestionsAnswered,
		DurationSeconds:   res.Duration().Seconds(),
	})
	return nil
}

// publish logs publishing failures without failing the request.
func (s *Service) publish(ctx context.Context, typ string, payload any) {
	ev := events.Event{Type: typ, OccurredAt: s.opts.Now(), Payload: payload}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish event", zap.String("type", typ), zap.Error(err))
	}
}

func view(entry *sessioncache.Entry, sess *placement.Session) *View {
	v := &View{
		SessionID: entry.SessionID,
		LearnerID: entry.LearnerID,
		State:     sess.State(),
		Answered:  sess.Answered(),
		Progress:  sess.Progress(),
		Result:    sess.Result(),
	}
	if q := sess.CurrentQuestion(); q != nil {
		pub := q.Public()
		v.Question = &pub
	}
	return v
}

// Record converts a finished session into its persisted form.
func Record(sessionID, learnerID string, res *placement.Result, history []placement.AnswerEvent) (*store.AttemptRecord, error) {
	if res == nil {
		return nil, errors.New("record attempt: session has no result")
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	rec := &store.AttemptRecord{
		SessionID:         sessionID,
		LearnerID:         learnerID,
		RecommendedLevel:  res.RecommendedLevel,
		Confidence:        res.Confidence,
		Score:             res.Score,
		WeightedScore:     res.WeightedScore,
		TotalPossible:     res.TotalPossibleScore,
		QuestionsAnswered: res.QuestionsAnswered,
		FoundationPenalty: res.FoundationPenalty,
		LevelProgression:  append([]cefr.Level(nil), res.LevelProgression...),
		Result:            raw,
		StartedAt:         res.StartedAt,
		CompletedAt:       res.CompletedAt,
		Answers:           make([]store.AnswerRecord, 0, len(history)),
	}
	for _, ev := range history {
		rec.Answers = append(rec.Answers, store.AnswerRecord{
			Position:    ev.Sequence,
			QuestionID:  ev.QuestionID,
			Level:       ev.Level,
			Answer:      ev.Answer,
			Correct:     ev.Correct,
			Points:      ev.Points,
			Category:    ev.Category,
			Topic:       ev.Topic,
			LevelBefore: ev.LevelBefore,
			LevelAfter:  ev.LevelAfter,
			AnsweredAt:  ev.AnsweredAt,
		})
	}
	return rec, nil
}
