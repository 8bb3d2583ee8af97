package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// storages runs a test against both the SQLite and the in-memory store.
func storages(t *testing.T) map[string]service.Storage {
	t.Helper()
	return map[string]service.Storage{
		"sqlite": createTestStorage(t),
		"memory": NewMemoryStorage(),
	}
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestAvailable(t *testing.T) {
	assert.True(t, createTestStorage(t).Available())
	assert.False(t, NewMemoryStorage().Available())

	mem, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = mem.Close() }()
	assert.False(t, mem.Available())
}

func TestSettings_RoundTrip(t *testing.T) {
	for name, store := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "server_ip")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "server_ip", "http://10.0.0.5"))
			value, ok, err := store.Get(ctx, "server_ip")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "http://10.0.0.5", value)

			require.NoError(t, store.Set(ctx, "server_ip", "http://10.0.0.6"))
			value, _, err = store.Get(ctx, "server_ip")
			require.NoError(t, err)
			assert.Equal(t, "http://10.0.0.6", value)

			require.NoError(t, store.Remove(ctx, "server_ip"))
			_, ok, err = store.Get(ctx, "server_ip")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Remove(ctx, "never_set"))
			assert.ErrorIs(t, store.Set(ctx, "", "x"), ErrEmptyString)
		})
	}
}

func TestSettings_PersistAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "punchdash.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Set(ctx, "server_port", "4000"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	value, ok, err := reopened.Get(ctx, "server_port")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4000", value)
}

func TestStatisticsSnapshot(t *testing.T) {
	for name, store := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, _, err := store.GetStatisticsSnapshot(ctx)
			assert.ErrorIs(t, err, common.ErrNotFound)

			stats := &model.Statistics{}
			stats.ApplyCorrectVerdict(model.LabelUpperCut, model.HandLeft)
			require.NoError(t, store.SaveStatisticsSnapshot(ctx, stats))

			got, fetchedAt, err := store.GetStatisticsSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, stats, got)
			assert.WithinDuration(t, time.Now(), fetchedAt, time.Minute)

			require.NoError(t, store.ClearStatisticsSnapshot(ctx))
			_, _, err = store.GetStatisticsSnapshot(ctx)
			assert.ErrorIs(t, err, common.ErrNotFound)

			assert.ErrorIs(t, store.SaveStatisticsSnapshot(ctx, nil), ErrNilParameter)
			bad := &model.Statistics{AbsolutePositiveAccuracy: -1}
			assert.ErrorIs(t, store.SaveStatisticsSnapshot(ctx, bad), ErrInvalidSnapshot)
		})
	}
}

func TestVerdictHistory(t *testing.T) {
	for name, store := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			correct := model.Verdict{Label: model.LabelStraightPunch, Hand: model.HandRight, RatedAt: base}
			corrected := model.Verdict{
				Label:      model.LabelStraightPunch,
				Hand:       model.HandRight,
				Correction: model.Correction{}.WithHand(model.HandLeft),
				RatedAt:    base.Add(time.Minute),
			}
			require.NoError(t, store.SaveVerdict(ctx, correct))
			require.NoError(t, store.SaveVerdict(ctx, corrected))

			all, err := store.GetVerdicts(ctx, 0)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.True(t, all[0].RatedAt.Equal(corrected.RatedAt), "newest first")
			require.NotNil(t, all[0].Correction.Hand)
			assert.Equal(t, model.HandLeft, *all[0].Correction.Hand)
			assert.Nil(t, all[0].Correction.Label)
			assert.True(t, all[1].Correction.IsEmpty())

			latest, err := store.GetVerdicts(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, latest, 1)

			invalid := model.Verdict{Label: model.Label(9), Hand: model.HandLeft, RatedAt: base}
			assert.ErrorIs(t, store.SaveVerdict(ctx, invalid), ErrInvalidVerdict)
			assert.ErrorIs(t, store.SaveVerdict(ctx, model.Verdict{}), ErrInvalidVerdict)
		})
	}
}
