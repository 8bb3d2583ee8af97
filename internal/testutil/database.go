// Package testutil provides SQLite-backed fixtures for tests that need real
// persistence rather than the in-memory store.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/storage"
)

// TestDB is a migrated in-memory SQLite database with seeding helpers.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions configures what SetupTestDBWithOptions seeds.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Snapshot       *model.Statistics
	Settings       map[string]string
	Verdicts       []model.Verdict
	SkipMigrations bool
}

// SetupTestDB creates an empty, migrated database that is closed when the
// test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	conn, err := settings.Load(ctx, db.Storage, settings.Defaults())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a database and seeds it from opts.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for key, value := range opts.Settings {
		if err := store.Set(ctx, key, value); err != nil {
			t.Fatalf("failed to seed setting %q: %v", key, err)
		}
	}

	if opts.Snapshot != nil {
		if err := store.SaveStatisticsSnapshot(ctx, opts.Snapshot); err != nil {
			t.Fatalf("failed to seed statistics snapshot: %v", err)
		}
	}

	for _, v := range opts.Verdicts {
		if err := store.SaveVerdict(ctx, v); err != nil {
			t.Fatalf("failed to seed verdict: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustGet returns a stored setting or fails the test.
func (db *TestDB) MustGet(key string) string {
	db.t.Helper()
	value, ok, err := db.Storage.Get(context.Background(), key)
	if err != nil {
		db.t.Fatalf("failed to read setting %q: %v", key, err)
	}
	if !ok {
		db.t.Fatalf("setting %q not stored", key)
	}
	return value
}

// MustSnapshot returns the cached statistics or fails the test.
func (db *TestDB) MustSnapshot() *model.Statistics {
	db.t.Helper()
	stats, _, err := db.Storage.GetStatisticsSnapshot(context.Background())
	if err != nil {
		db.t.Fatalf("failed to read statistics snapshot: %v", err)
	}
	return stats
}

// MustVerdicts returns every recorded verdict, newest first, or fails the test.
func (db *TestDB) MustVerdicts() []model.Verdict {
	db.t.Helper()
	verdicts, err := db.Storage.GetVerdicts(context.Background(), 0)
	if err != nil {
		db.t.Fatalf("failed to read verdicts: %v", err)
	}
	return verdicts
}
