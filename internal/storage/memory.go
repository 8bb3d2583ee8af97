package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
)

// MemoryStorage keeps everything for the current session only. It is the
// fallback when the database cannot be opened, and reports Available() false.
type MemoryStorage struct {
	fetchedAt time.Time
	settings  map[string]string
	snapshot  *model.Statistics
	verdicts  []model.Verdict
	mu        sync.RWMutex
}

var _ service.Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty session-only store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{settings: make(map[string]string)}
}

// Available reports that values do not persist.
func (m *MemoryStorage) Available() bool { return false }

// Migrate is a no-op.
func (m *MemoryStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStorage) Close() error { return nil }

// Get returns the value stored under key.
func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	if err := validateString(key, "key"); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	if err := validateString(key, "key"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Remove deletes key.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	if err := validateString(key, "key"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, key)
	return nil
}

// SaveStatisticsSnapshot replaces the cached statistics.
func (m *MemoryStorage) SaveStatisticsSnapshot(_ context.Context, stats *model.Statistics) error {
	if err := validateStatistics(stats); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = stats.Clone()
	m.fetchedAt = time.Now().UTC()
	return nil
}

// GetStatisticsSnapshot returns the cached statistics.
func (m *MemoryStorage) GetStatisticsSnapshot(_ context.Context) (*model.Statistics, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return nil, time.Time{}, common.ErrNotFound
	}
	return m.snapshot.Clone(), m.fetchedAt, nil
}

// ClearStatisticsSnapshot drops the cached statistics.
func (m *MemoryStorage) ClearStatisticsSnapshot(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	m.fetchedAt = time.Time{}
	return nil
}

// SaveVerdict appends a verdict to the history.
func (m *MemoryStorage) SaveVerdict(_ context.Context, v model.Verdict) error {
	if err := validateVerdict(v); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts = append(m.verdicts, v)
	return nil
}

// GetVerdicts returns the most recent verdicts, newest first.
func (m *MemoryStorage) GetVerdicts(_ context.Context, limit int) ([]model.Verdict, error) {
	m.mu.RLock()
	out := make([]model.Verdict, 0, len(m.verdicts))
	for i := len(m.verdicts) - 1; i >= 0; i-- {
		out = append(out, m.verdicts[i])
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RatedAt.After(out[j].RatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
