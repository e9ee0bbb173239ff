// Package store keeps the history of test and run executions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("execution not found")

// Kind distinguishes dry-run tests from real executions.
type Kind string

const (
	KindTest Kind = "test"
	KindRun  Kind = "run"
)

// Record is one finished (or failed) execution. Payload holds the full
// result document as JSON.
type Record struct {
	ID         string          `json:"id"`
	AgentID    string          `json:"agentId"`
	Kind       Kind            `json:"kind"`
	Status     string          `json:"status"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Filter narrows List. Zero fields match everything; Limit <= 0 means 50.
type Filter struct {
	AgentID string
	Kind    Kind
	Limit   int
}

const defaultLimit = 50

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}

func (f Filter) match(r *Record) bool {
	return (f.AgentID == "" || r.AgentID == f.AgentID) && (f.Kind == "" || r.Kind == f.Kind)
}

// Store persists execution records. Save replaces any record with the same ID.
// List returns the most recent first.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}

// NewRecord marshals result into a Record.
func NewRecord(id, agentID string, kind Kind, status string, startedAt, finishedAt time.Time, result any) (*Record, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:         id,
		AgentID:    agentID,
		Kind:       kind,
		Status:     status,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Payload:    payload,
	}, nil
}
