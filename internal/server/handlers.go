package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/placement"
	"github.com/abhisek/englevel/internal/store"
)

type startRequest struct {
	LearnerID string `json:"learnerId" binding:"max=128"`
}

type answerRequest struct {
	Answer string `json:"answer" binding:"max=512"`
}

func (s *Server) health(c *gin.Context) {
	components := gin.H{}
	if s.db != nil {
		if err := s.db.Ping(c.Request.Context()); err != nil {
			s.logger.Warn("health check: database unavailable", zap.Error(err))
			fail(c, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		components["database"] = "up"
	}
	success(c, gin.H{"status": "ok", "components": components})
}

func (s *Server) startAttempt(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	v, err := s.svc.Start(c.Request.Context(), req.LearnerID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.started.Inc()
	created(c, v)
}

func (s *Server) getAttempt(c *gin.Context) {
	v, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	success(c, v)
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.svc.Answer(c.Request.Context(), c.Param("id"), req.Answer)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.metrics.observeAnswer(res.Outcome.Level, res.Outcome.Correct)
	if res.Result != nil {
		s.metrics.observeCompleted(res.Result.RecommendedLevel)
	}
	success(c, res)
}

func (s *Server) completeAttempt(c *gin.Context) {
	res, err := s.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.observeCompleted(res.RecommendedLevel)
	success(c, res)
}

func (s *Server) discardAttempt(c *gin.Context) {
	if err := s.svc.Discard(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	success(c, gin.H{"sessionId": c.Param("id"), "discarded": true})
}

func (s *Server) learnerAttempts(c *gin.Context) {
	opts, err := queryOpts(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.svc.History(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if recs == nil {
		recs = []store.AttemptRecord{}
	}
	success(c, gin.H{"learnerId": c.Param("id"), "attempts": recs})
}

func queryOpts(c *gin.Context) (store.QueryOpts, error) {
	var opts store.QueryOpts
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("limit must be a non-negative integer")
		}
		opts.Limit = n
	}
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return opts, errors.New("after must be a non-negative integer")
		}
		opts.After = n
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errors.New("from must be an RFC 3339 timestamp")
		}
		opts.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errors.New("to must be an RFC 3339 timestamp")
		}
		opts.To = t
	}
	return opts, nil
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		insufficient *placement.ErrInsufficientQuestionPool
		invalid      *placement.ErrInvalidAnswerSubmission
		notActive    *placement.ErrSessionNotActive
		persist      *attempt.ErrPersist
	)
	switch {
	case errors.Is(err, attempt.ErrSessionNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.As(err, &invalid):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &notActive):
		fail(c, http.StatusConflict, err.Error())
	case errors.As(err, &insufficient):
		s.logger.Error("question pool too small", zap.Error(err))
		fail(c, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &persist):
		s.metrics.persistFailures.Inc()
		s.logger.Error("store attempt", zap.String("session_id", persist.SessionID), zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to store attempt, the session is unchanged; resend the same request")
	default:
		s.logger.Error("internal server error", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}
