// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/punchdash/internal/model"
)

// KeyValueStore persists string settings. Available reports whether values
// survive a restart; a store that is not available still works for the
// current session.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Available() bool
}

// StatisticsCache keeps the last statistics received from the backend.
type StatisticsCache interface {
	SaveStatisticsSnapshot(ctx context.Context, stats *model.Statistics) error
	GetStatisticsSnapshot(ctx context.Context) (*model.Statistics, time.Time, error)
	ClearStatisticsSnapshot(ctx context.Context) error
}

// VerdictHistory records every verdict the user submitted from this client.
type VerdictHistory interface {
	SaveVerdict(ctx context.Context, verdict model.Verdict) error
	GetVerdicts(ctx context.Context, limit int) ([]model.Verdict, error)
}

// Storage is the full local persistence layer.
type Storage interface {
	KeyValueStore
	StatisticsCache
	VerdictHistory
	Migrate(ctx context.Context) error
	Close() error
}

// SampleStatus describes the outcome of a sample poll.
type SampleStatus int

// Sample poll outcomes.
const (
	SampleOK SampleStatus = iota
	SampleEmpty
	SampleMalformed
)

func (s SampleStatus) String() string {
	switch s {
	case SampleOK:
		return "ok"
	case SampleEmpty:
		return "empty"
	case SampleMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// SampleResult is the typed outcome of fetching a sample. A malformed
// payload is reported here rather than as a transport error.
type SampleResult struct {
	Err    error
	Sample model.Sample
	Status SampleStatus
}

// ConnectivityResult is the backend's answer to a connectivity check.
type ConnectivityResult struct {
	Message string
	Success bool
}

// Connector talks to the punch classification backend.
type Connector interface {
	FetchSample(ctx context.Context) (SampleResult, error)
	FetchStatistics(ctx context.Context) (*model.Statistics, error)
	PushStatistics(ctx context.Context, stats *model.Statistics) (*model.Statistics, error)
	DeleteStatistics(ctx context.Context) (bool, error)
	CheckConnectivity(ctx context.Context) (ConnectivityResult, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
