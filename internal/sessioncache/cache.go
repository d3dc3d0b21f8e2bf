// Package sessioncache holds snapshots of in-progress assessments between
// requests.
package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/englevel/internal/placement"
)

// ErrNotFound is returned by Get when no snapshot exists for the ID.
var ErrNotFound = errors.New("session not found in cache")

// Entry is a cached session together with its owner.
type Entry struct {
	SessionID string              `json:"sessionId"`
	LearnerID string              `json:"learnerId,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	Snapshot  *placement.Snapshot `json:"snapshot"`
}

// Cache stores entries by session ID.
type Cache interface {
	Get(ctx context.Context, id string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
}

func encode(e *Entry) ([]byte, error) {
	if e == nil || e.SessionID == "" {
		return nil, errors.New("cache entry has no session id")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	return &e, nil
}
