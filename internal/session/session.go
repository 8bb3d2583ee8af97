// Package session holds the dashboard state between user actions: the last
// observed sample, the pending correction and the local statistics copy.
//
// A Session is not safe for concurrent use. The TUI update loop and the CLI
// commands each drive their own session from a single goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/punchdash/internal/backend"
	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/metrics"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
)

// ErrNoSample is returned when a verdict is submitted before any sample was
// observed.
var ErrNoSample = errors.New("no sample to rate")

// ErrNotReady is returned when the current sample was already rated.
var ErrNotReady = errors.New("waiting for next punch")

// ErrNoStatistics is returned when a verdict is submitted before statistics
// were loaded.
var ErrNoStatistics = errors.New("statistics not loaded")

// Session is the dashboard core.
type Session struct {
	connector  service.Connector
	cache      service.StatisticsCache
	history    service.VerdictHistory
	recorder   metrics.Recorder
	stats      *model.Statistics
	current    *model.Sample
	syncedAt   time.Time
	correction model.Correction
	lastStatus service.SampleStatus
	stale      bool
	ready      bool
	available  bool
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder reports verdicts and accuracy through r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// New creates a session. cache and history may be nil.
func New(connector service.Connector, cache service.StatisticsCache, history service.VerdictHistory, opts ...Option) *Session {
	s := &Session{
		connector: connector,
		cache:     cache,
		history:   history,
		recorder:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadStatistics fetches the statistics from the backend and caches them.
// When the backend cannot be reached the cached snapshot is used instead and
// Stale reports true.
func (s *Session) LoadStatistics(ctx context.Context) (*model.Statistics, error) {
	stats, err := s.connector.FetchStatistics(ctx)
	return s.ApplyFetched(ctx, stats, err)
}

// ApplyFetched adopts the outcome of a statistics fetch done elsewhere, with
// the same cache fallback as LoadStatistics.
func (s *Session) ApplyFetched(ctx context.Context, stats *model.Statistics, err error) (*model.Statistics, error) {
	if err == nil {
		s.adopt(ctx, stats)
		return s.Statistics(), nil
	}

	if s.cache == nil || ctx.Err() != nil {
		return nil, err
	}

	cached, fetchedAt, cacheErr := s.cache.GetStatisticsSnapshot(ctx)
	if cacheErr != nil {
		if !errors.Is(cacheErr, common.ErrNotFound) {
			common.LogError(cacheErr, "Failed to read statistics snapshot", nil)
		}
		return nil, err
	}

	slog.Warn("Backend unavailable, showing cached statistics",
		"error", err,
		"fetched_at", fetchedAt)
	s.stats = cached
	s.syncedAt = fetchedAt
	s.stale = true
	return s.Statistics(), nil
}

// Statistics returns a copy of the local statistics, or nil before the
// first load.
func (s *Session) Statistics() *model.Statistics {
	if s.stats == nil {
		return nil
	}
	return s.stats.Clone()
}

// Stale reports whether the statistics came from the local cache.
func (s *Session) Stale() bool {
	return s.stale
}

// SyncedAt returns when the statistics were last received from the backend.
func (s *Session) SyncedAt() time.Time {
	return s.syncedAt
}

// Observe records a sample poll result. It returns true when the sample is
// new, in which case the session becomes ready for rating and any pending
// correction is dropped.
func (s *Session) Observe(result service.SampleResult) bool {
	s.lastStatus = result.Status
	if result.Status == service.SampleMalformed {
		s.available = false
	}
	if result.Status != service.SampleOK {
		return false
	}
	if !result.Sample.IsNewerThan(s.current) {
		return false
	}

	sample := result.Sample
	s.current = &sample
	s.ready = true
	s.available = true
	s.correction = model.Correction{}
	slog.Debug("New sample observed",
		"label", sample.Label,
		"hand", sample.Hand,
		"readings", len(sample.Trace))
	return true
}

// Current returns the last adopted sample.
func (s *Session) Current() (model.Sample, bool) {
	if s.current == nil {
		return model.Sample{}, false
	}
	return *s.current, true
}

// DataAvailable reports whether there is a sample to show. After a malformed
// poll it stays false until a newer sample is adopted, so the previous sample
// is not shown again.
func (s *Session) DataAvailable() bool {
	return s.available && s.current != nil
}

// LastStatus returns the status of the most recent poll.
func (s *Session) LastStatus() service.SampleStatus {
	return s.lastStatus
}

// ReadyForRating reports whether the current sample awaits a verdict.
func (s *Session) ReadyForRating() bool {
	return s.ready && s.current != nil
}

// Correction returns the pending correction.
func (s *Session) Correction() model.Correction {
	return s.correction
}

// SetCorrectionLabel overrides the predicted label.
func (s *Session) SetCorrectionLabel(l model.Label) {
	s.correction = s.correction.WithLabel(l)
}

// SetCorrectionHand overrides the predicted hand.
func (s *Session) SetCorrectionHand(h model.Hand) {
	s.correction = s.correction.WithHand(h)
}

// ResetCorrection drops any pending override.
func (s *Session) ResetCorrection() {
	s.correction = model.Correction{}
}

// IsFullyCorrect reports whether nothing was overridden.
func (s *Session) IsFullyCorrect() bool {
	return s.correction.IsEmpty()
}

// SubmitCorrect records that the current prediction is right on both axes.
func (s *Session) SubmitCorrect(ctx context.Context) error {
	v, base, err := s.PrepareCorrect()
	if err != nil {
		return err
	}
	return s.submit(ctx, v, base)
}

// SubmitCorrection records the pending correction. An empty correction is a
// no-op and returns false.
func (s *Session) SubmitCorrection(ctx context.Context) (bool, error) {
	v, base, ok, err := s.PrepareCorrection()
	if err != nil || !ok {
		return false, err
	}
	if err := s.submit(ctx, v, base); err != nil {
		return false, err
	}
	return true, nil
}

// PrepareCorrect builds a verdict confirming the current prediction and
// returns it with a copy of the statistics to apply it to.
func (s *Session) PrepareCorrect() (model.Verdict, *model.Statistics, error) {
	sample, err := s.rateable()
	if err != nil {
		return model.Verdict{}, nil, err
	}
	return model.NewCorrectVerdict(sample.Label, sample.Hand), s.stats.Clone(), nil
}

// PrepareCorrection builds a verdict from the pending correction. It returns
// false when nothing was overridden.
func (s *Session) PrepareCorrection() (model.Verdict, *model.Statistics, bool, error) {
	if s.correction.IsEmpty() {
		return model.Verdict{}, nil, false, nil
	}
	sample, err := s.rateable()
	if err != nil {
		return model.Verdict{}, nil, false, err
	}
	v := model.NewCorrectionVerdict(sample.Label, sample.Hand, s.correction)
	if !v.Valid() {
		return model.Verdict{}, nil, false, fmt.Errorf("correction: %w", model.ErrInvalidValue)
	}
	return v, s.stats.Clone(), true, nil
}

// CompleteVerdict adopts the statistics the backend answered with, records
// the verdict and waits for the next punch.
func (s *Session) CompleteVerdict(ctx context.Context, v model.Verdict, updated *model.Statistics) {
	s.adopt(ctx, updated)
	if s.history != nil {
		if err := s.history.SaveVerdict(ctx, v); err != nil {
			common.LogError(err, "Failed to record verdict", nil)
		}
	}
	s.recorder.RecordVerdict(v.IsCorrect())

	s.correction = model.Correction{}
	s.ready = false
}

// PushVerdict applies v to a copy of base and pushes it. A conflict is
// resolved by refetching and replaying v once. It does not touch any
// session, so it can run off the owning goroutine.
func PushVerdict(ctx context.Context, connector service.Connector, base *model.Statistics, v model.Verdict) (*model.Statistics, error) {
	updated, err := push(ctx, connector, base, v)
	if errors.Is(err, backend.ErrStatsConflict) {
		slog.Info("Statistics changed on the backend, replaying verdict")
		fresh, fetchErr := connector.FetchStatistics(ctx)
		if fetchErr != nil {
			return nil, fmt.Errorf("failed to refetch statistics after conflict: %w", fetchErr)
		}
		updated, err = push(ctx, connector, fresh, v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to push statistics: %w", err)
	}
	return updated, nil
}

// DeleteStatistics resets the statistics on the backend and clears the
// local copy and cache.
func (s *Session) DeleteStatistics(ctx context.Context) (bool, error) {
	ok, err := s.connector.DeleteStatistics(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete statistics: %w", err)
	}
	s.ApplyDeleted(ctx, ok)
	return ok, nil
}

// ApplyDeleted updates local state after a delete request answered ok.
func (s *Session) ApplyDeleted(ctx context.Context, ok bool) {
	if !ok {
		return
	}

	s.stats = &model.Statistics{}
	s.stale = false
	s.syncedAt = time.Now()
	if s.cache != nil {
		if err := s.cache.ClearStatisticsSnapshot(ctx); err != nil {
			common.LogError(err, "Failed to clear statistics snapshot", nil)
		}
	}
	s.recorder.SetRelativeAccuracy(0)
	slog.Info("Statistics deleted")
}

func (s *Session) rateable() (model.Sample, error) {
	if s.current == nil {
		return model.Sample{}, ErrNoSample
	}
	if !s.ready {
		return model.Sample{}, ErrNotReady
	}
	if s.stats == nil {
		return model.Sample{}, ErrNoStatistics
	}
	return *s.current, nil
}

// submit pushes v. On failure the session is left unchanged so the verdict
// can be submitted again.
func (s *Session) submit(ctx context.Context, v model.Verdict, base *model.Statistics) error {
	updated, err := PushVerdict(ctx, s.connector, base, v)
	if err != nil {
		return err
	}
	s.CompleteVerdict(ctx, v, updated)
	return nil
}

func push(ctx context.Context, connector service.Connector, base *model.Statistics, v model.Verdict) (*model.Statistics, error) {
	next := base.Clone()
	v.ApplyTo(next)
	return connector.PushStatistics(ctx, next)
}

func (s *Session) adopt(ctx context.Context, stats *model.Statistics) {
	s.stats = stats
	s.stale = false
	s.syncedAt = time.Now()
	s.recorder.SetRelativeAccuracy(stats.RelativeAccuracy)
	if s.cache != nil {
		if err := s.cache.SaveStatisticsSnapshot(ctx, stats); err != nil {
			common.LogError(err, "Failed to cache statistics snapshot", nil)
		}
	}
}
