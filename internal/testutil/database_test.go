package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t)

	version, err := db.Storage.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.ExpectedSchemaVersion, version)
	assert.Empty(t, db.MustVerdicts())
}

func TestSetupTestDBWithOptions(t *testing.T) {
	stats := NewStatistics().
		Correct(model.LabelUpperCut, model.HandLeft, 2).
		Corrected(model.LabelHookPunch, model.HandRight, model.Correction{}.WithLabel(model.LabelStraightPunch)).
		Build()

	var ran bool
	db := SetupTestDBWithOptions(t, TestDBOptions{
		Snapshot: stats,
		Settings: map[string]string{"server_ip": "http://gym.local"},
		Verdicts: []model.Verdict{model.NewCorrectVerdict(model.LabelUpperCut, model.HandLeft)},
		CustomSetup: func(context.Context, *storage.SQLiteStorage) error {
			ran = true
			return nil
		},
	})

	assert.True(t, ran)
	assert.Equal(t, "http://gym.local", db.MustGet("server_ip"))
	assert.Equal(t, stats, db.MustSnapshot())
	require.Len(t, db.MustVerdicts(), 1)
}

func TestStatisticsBuilder(t *testing.T) {
	stats := NewStatistics().
		Correct(model.LabelStraightPunch, model.HandRight, 3).
		Corrected(model.LabelStraightPunch, model.HandRight, model.Correction{}.WithHand(model.HandLeft)).
		Build()

	assert.Equal(t, 3, stats.AbsolutePositiveAccuracy)
	assert.Equal(t, 1, stats.AbsoluteNegativeAccuracy)
	assert.InDelta(t, 75.0, stats.RelativeAccuracy, 0.001)
	assert.Equal(t, 1, stats.AbsoluteHandOnlyFailsSums[model.HandLeft])
}
