package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Veraticus/punchdash/internal/backend"
	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/storage"
	"github.com/Veraticus/punchdash/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnector keeps statistics in memory the way the backend does.
type fakeConnector struct {
	fetchErr   error
	concurrent func(*model.Statistics)
	lastPushed *model.Statistics
	pushErrs   []error
	stats      model.Statistics
	pushes     int
	fetches    int
	deleteOK   bool
}

func (f *fakeConnector) FetchSample(context.Context) (service.SampleResult, error) {
	return service.SampleResult{Status: service.SampleEmpty}, nil
}

func (f *fakeConnector) FetchStatistics(context.Context) (*model.Statistics, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.stats.Clone(), nil
}

func (f *fakeConnector) PushStatistics(_ context.Context, stats *model.Statistics) (*model.Statistics, error) {
	f.pushes++
	f.lastPushed = stats.Clone()
	if len(f.pushErrs) > 0 {
		err := f.pushErrs[0]
		f.pushErrs = f.pushErrs[1:]
		if err != nil {
			if errors.Is(err, backend.ErrStatsConflict) && f.concurrent != nil {
				f.concurrent(&f.stats)
			}
			return nil, err
		}
	}
	f.stats = *stats
	f.stats.Recompute()
	return f.stats.Clone(), nil
}

func (f *fakeConnector) DeleteStatistics(context.Context) (bool, error) {
	if f.deleteOK {
		f.stats = model.Statistics{}
	}
	return f.deleteOK, nil
}

func (f *fakeConnector) CheckConnectivity(context.Context) (service.ConnectivityResult, error) {
	return service.ConnectivityResult{Success: true, Message: "ok"}, nil
}

func sample(x, y float64, label model.Label, hand model.Hand) service.SampleResult {
	return service.SampleResult{
		Status: service.SampleOK,
		Sample: model.Sample{
			Trace: []model.AccelPoint{{TimestampMS: 0, X: x, Y: y, Z: 0}, {TimestampMS: 10, X: 1, Y: 1, Z: 1}},
			Label: label,
			Hand:  hand,
		},
	}
}

func newLoadedSession(t *testing.T, conn *fakeConnector) (*Session, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	s := New(conn, store, store)
	_, err := s.LoadStatistics(context.Background())
	require.NoError(t, err)
	return s, store
}

func TestLoadStatistics_CachesSnapshot(t *testing.T) {
	conn := &fakeConnector{}
	conn.stats.ApplyCorrectVerdict(model.LabelUpperCut, model.HandRight)
	s, store := newLoadedSession(t, conn)

	assert.False(t, s.Stale())
	assert.Equal(t, 1, s.Statistics().AbsolutePositiveAccuracy)

	cached, _, err := store.GetStatisticsSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cached.AbsolutePositiveAccuracy)
}

func TestLoadStatistics_FallsBackToCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	cached := &model.Statistics{}
	cached.ApplyCorrectVerdict(model.LabelHookPunch, model.HandLeft)
	require.NoError(t, store.SaveStatisticsSnapshot(ctx, cached))

	conn := &fakeConnector{fetchErr: fmt.Errorf("%w: refused", common.ErrBackendUnavailable)}
	s := New(conn, store, store)

	stats, err := s.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.True(t, s.Stale())
	assert.Equal(t, 1, stats.AbsolutePunchTypeOnlyWinsSums[model.LabelHookPunch])
}

func TestLoadStatistics_NoCache(t *testing.T) {
	conn := &fakeConnector{fetchErr: common.ErrBackendUnavailable}
	s := New(conn, storage.NewMemoryStorage(), nil)

	stats, err := s.LoadStatistics(context.Background())
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
	assert.Nil(t, stats)
	assert.Nil(t, s.Statistics())
}

func TestObserve(t *testing.T) {
	s := New(&fakeConnector{}, nil, nil)

	assert.False(t, s.DataAvailable())
	assert.True(t, s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight)))
	assert.True(t, s.ReadyForRating())
	assert.True(t, s.DataAvailable())

	s.SetCorrectionHand(model.HandLeft)
	assert.False(t, s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight)), "same first readings are not new")
	assert.False(t, s.IsFullyCorrect(), "the correction survives a repeated sample")

	assert.False(t, s.Observe(sample(1, 3, model.LabelUpperCut, model.HandRight)), "only y changed")

	assert.False(t, s.Observe(service.SampleResult{Status: service.SampleMalformed, Err: common.ErrMalformedPayload}))
	assert.False(t, s.DataAvailable())
	assert.Equal(t, service.SampleMalformed, s.LastStatus())

	assert.True(t, s.Observe(sample(5, 6, model.LabelStraightPunch, model.HandLeft)))
	assert.True(t, s.DataAvailable())
	assert.True(t, s.IsFullyCorrect(), "a new sample drops the pending correction")

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, model.LabelStraightPunch, current.Label)
}

func TestObserve_MalformedHidesSampleUntilNewOne(t *testing.T) {
	s := New(&fakeConnector{}, nil, nil)
	require.True(t, s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight)))

	s.Observe(service.SampleResult{Status: service.SampleMalformed, Err: common.ErrMalformedPayload})
	require.False(t, s.DataAvailable())

	assert.False(t, s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight)))
	assert.Equal(t, service.SampleOK, s.LastStatus())
	assert.False(t, s.DataAvailable(), "the old sample must not come back")

	s.Observe(service.SampleResult{Status: service.SampleEmpty})
	assert.False(t, s.DataAvailable())

	assert.True(t, s.Observe(sample(3, 4, model.LabelHookPunch, model.HandLeft)))
	assert.True(t, s.DataAvailable())
}

func TestObserve_EmptyKeepsSample(t *testing.T) {
	s := New(&fakeConnector{}, nil, nil)
	require.True(t, s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight)))

	assert.False(t, s.Observe(service.SampleResult{Status: service.SampleEmpty}))
	assert.True(t, s.DataAvailable())
}

func TestSubmitCorrect(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{}
	s, store := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelHookPunch, model.HandLeft))

	require.NoError(t, s.SubmitCorrect(ctx))

	stats := s.Statistics()
	assert.Equal(t, 1, stats.AbsolutePositiveAccuracy)
	assert.Equal(t, 1, stats.AbsoluteHandOnlyWinsSums[model.HandLeft])
	assert.Equal(t, 1, stats.AbsolutePunchTypeOnlyWinsSums[model.LabelHookPunch])
	assert.Equal(t, 1, stats.AbsoluteFailWinSums[model.LabelHookPunch].Hands[model.HandLeft][model.SlotWin])
	assert.InDelta(t, 100, stats.RelativeAccuracy, 1e-9)
	assert.False(t, s.ReadyForRating(), "waiting for next punch")

	verdicts, err := store.GetVerdicts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].IsCorrect())

	assert.ErrorIs(t, s.SubmitCorrect(ctx), ErrNotReady)
}

func TestSubmitCorrection(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{}
	s, store := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight))

	s.SetCorrectionHand(model.HandLeft)
	submitted, err := s.SubmitCorrection(ctx)
	require.NoError(t, err)
	assert.True(t, submitted)

	stats := s.Statistics()
	assert.Equal(t, 1, stats.AbsoluteNegativeAccuracy)
	assert.Equal(t, 1, stats.AbsoluteHandOnlyFailsSums[model.HandLeft])
	assert.Equal(t, 1, stats.AbsolutePunchTypeOnlyWinsSums[model.LabelUpperCut])
	assert.Equal(t, 1, stats.AbsoluteFailWinSums[model.LabelUpperCut].Hands[model.HandLeft][model.SlotFail])
	assert.InDelta(t, 0, stats.RelativeAccuracy, 1e-9)
	assert.True(t, s.IsFullyCorrect())
	assert.False(t, s.ReadyForRating())

	verdicts, err := store.GetVerdicts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.False(t, verdicts[0].IsCorrect())
}

func TestSubmitCorrection_EmptyIsNoop(t *testing.T) {
	conn := &fakeConnector{}
	s, _ := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight))

	submitted, err := s.SubmitCorrection(context.Background())
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Equal(t, 0, conn.pushes)
	assert.True(t, s.ReadyForRating())
}

func TestSubmitCorrection_MatchingPredictionCountsAsCorrect(t *testing.T) {
	conn := &fakeConnector{}
	s, _ := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight))

	s.SetCorrectionLabel(model.LabelUpperCut)
	submitted, err := s.SubmitCorrection(context.Background())
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, 1, s.Statistics().AbsolutePositiveAccuracy)
	assert.Equal(t, 0, s.Statistics().AbsoluteNegativeAccuracy)
}

func TestSubmit_Guards(t *testing.T) {
	ctx := context.Background()

	s := New(&fakeConnector{}, nil, nil)
	assert.ErrorIs(t, s.SubmitCorrect(ctx), ErrNoSample)

	s.Observe(sample(1, 2, model.LabelUpperCut, model.HandRight))
	assert.ErrorIs(t, s.SubmitCorrect(ctx), ErrNoStatistics)
}

func TestSubmit_ConflictReplaysVerdict(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{
		pushErrs: []error{fmt.Errorf("%w: status 412", backend.ErrStatsConflict)},
		concurrent: func(stats *model.Statistics) {
			// Another client rated a punch in the meantime.
			stats.ApplyCorrectVerdict(model.LabelStraightPunch, model.HandRight)
		},
	}
	s, _ := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelHookPunch, model.HandLeft))

	require.NoError(t, s.SubmitCorrect(ctx))

	assert.Equal(t, 2, conn.pushes)
	assert.Equal(t, 2, conn.fetches, "initial load plus one refetch")
	stats := s.Statistics()
	assert.Equal(t, 2, stats.AbsolutePositiveAccuracy, "neither increment is lost")
	assert.Equal(t, 1, stats.AbsolutePunchTypeOnlyWinsSums[model.LabelStraightPunch])
	assert.Equal(t, 1, stats.AbsolutePunchTypeOnlyWinsSums[model.LabelHookPunch])
}

func TestSubmit_SecondConflictFails(t *testing.T) {
	conflict := fmt.Errorf("%w: status 412", backend.ErrStatsConflict)
	conn := &fakeConnector{pushErrs: []error{conflict, conflict}}
	s, _ := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelHookPunch, model.HandLeft))

	err := s.SubmitCorrect(context.Background())
	assert.ErrorIs(t, err, backend.ErrStatsConflict)
	assert.Equal(t, 2, conn.pushes)
}

func TestSubmit_FailureKeepsState(t *testing.T) {
	conn := &fakeConnector{pushErrs: []error{common.ErrBackendUnavailable}}
	s, _ := newLoadedSession(t, conn)
	s.Observe(sample(1, 2, model.LabelHookPunch, model.HandLeft))
	s.SetCorrectionLabel(model.LabelUpperCut)

	_, err := s.SubmitCorrection(context.Background())
	require.ErrorIs(t, err, common.ErrBackendUnavailable)

	assert.True(t, s.ReadyForRating())
	assert.False(t, s.IsFullyCorrect())
	assert.Equal(t, 0, s.Statistics().Total())

	submitted, err := s.SubmitCorrection(context.Background())
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, 1, s.Statistics().AbsoluteNegativeAccuracy)
}

func TestDeleteStatistics(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnector{deleteOK: true}
	conn.stats.ApplyCorrectVerdict(model.LabelUpperCut, model.HandRight)
	s, store := newLoadedSession(t, conn)

	ok, err := s.DeleteStatistics(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Statistics().Total())

	_, _, err = store.GetStatisticsSnapshot(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteStatistics_Refused(t *testing.T) {
	conn := &fakeConnector{deleteOK: false}
	conn.stats.ApplyCorrectVerdict(model.LabelUpperCut, model.HandRight)
	s, _ := newLoadedSession(t, conn)

	ok, err := s.DeleteStatistics(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Statistics().Total())
}

func TestSession_SQLiteStorage(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Snapshot: testutil.NewStatistics().Correct(model.LabelNoAction, model.HandRight, 4).Build(),
	})

	conn := &fakeConnector{fetchErr: common.ErrBackendUnavailable}
	s := New(conn, db.Storage, db.Storage)

	stats, err := s.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.True(t, s.Stale())
	assert.Equal(t, 4, stats.AbsolutePositiveAccuracy)

	conn.fetchErr = nil
	conn.stats = *testutil.NewStatistics().Correct(model.LabelUpperCut, model.HandLeft, 1).Build()
	_, err = s.LoadStatistics(ctx)
	require.NoError(t, err)
	assert.False(t, s.Stale())

	s.Observe(sample(3, 4, model.LabelUpperCut, model.HandLeft))
	s.SetCorrectionLabel(model.LabelHookPunch)
	submitted, err := s.SubmitCorrection(ctx)
	require.NoError(t, err)
	require.True(t, submitted)

	cached := db.MustSnapshot()
	assert.Equal(t, 1, cached.AbsolutePositiveAccuracy)
	assert.Equal(t, 1, cached.AbsoluteNegativeAccuracy)

	verdicts := db.MustVerdicts()
	require.Len(t, verdicts, 1)
	label, hand := verdicts[0].Truth()
	assert.Equal(t, model.LabelHookPunch, label)
	assert.Equal(t, model.HandLeft, hand)
}
