package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/punchdash/internal/backend"
	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/mockserver"
	"github.com/Veraticus/punchdash/internal/model"
	"github.com/Veraticus/punchdash/internal/schedule"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/session"
	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/Veraticus/punchdash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testStatistics() *model.Statistics {
	s := &model.Statistics{}
	s.ApplyCorrectVerdict(model.LabelStraightPunch, model.HandLeft)
	s.ApplyCorrectVerdict(model.LabelStraightPunch, model.HandLeft)
	s.ApplyCorrectVerdict(model.LabelUpperCut, model.HandRight)
	s.ApplyCorrection(model.LabelHookPunch, model.HandRight, model.Correction{}.WithHand(model.HandLeft))
	return s
}

func startMock(t *testing.T) (*mockserver.Server, *backend.Client) {
	t.Helper()
	mock := mockserver.New("coach", "pw", mockserver.WithSeed(7), mockserver.WithSampleInterval(0))
	srv := httptest.NewServer(mock)
	t.Cleanup(srv.Close)

	idx := strings.LastIndex(srv.URL, ":")
	client := backend.New(settings.Connection{
		Host:     srv.URL[:idx],
		Port:     srv.URL[idx+1:],
		Username: "coach",
		Password: "pw",
	})
	return mock, client
}

func TestWriteStatistics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatistics(&buf, testStatistics()))

	out := buf.String()
	assert.Contains(t, out, "Relative accuracy: 75% (3 correct, 1 wrong)")
	assert.Contains(t, out, "StraightPunch")
	assert.Contains(t, out, "2/0")
	assert.Contains(t, out, "Punch type × hand")
}

func TestWriteStatistics_Distribution(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStatistics(&buf, testStatistics()))

	out := buf.String()
	assert.Contains(t, out, "Recognition statistics")
	assert.Contains(t, out, "share: Right 25%, Left 75%")
	idx := strings.Index(out, "Distribution")
	require.GreaterOrEqual(t, idx, 0)

	shares := map[string]string{}
	for _, line := range strings.Split(out[idx:], "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		shares[fields[0]] = strings.Join(fields[1:], " ")
	}

	assert.Equal(t, map[string]string{
		"NoAction":      "0 ( 0%)",
		"UpperCut":      "1 ( 25%)",
		"HookPunch":     "1 ( 25%)",
		"StraightPunch": "2 ( 50%)",
	}, shares)
}

func TestExportStatistics(t *testing.T) {
	stats := testStatistics()

	tests := []struct {
		decode func([]byte) (*model.Statistics, error)
		name   string
		format string
	}{
		{
			name:   "json",
			format: "json",
			decode: func(b []byte) (*model.Statistics, error) {
				var s model.Statistics
				return &s, json.Unmarshal(b, &s)
			},
		},
		{
			name:   "yaml",
			format: "yaml",
			decode: func(b []byte) (*model.Statistics, error) {
				var s model.Statistics
				return &s, yaml.Unmarshal(b, &s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, exportStatistics(&buf, stats, tt.format))

			got, err := tt.decode(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, stats, got)
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		err := exportStatistics(&buf, stats, "csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown export format "csv"`)
	})
}

func TestExportToFile(t *testing.T) {
	stats := testStatistics()

	t.Run("writes the export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stats.yaml")
		require.NoError(t, exportToFile(path, stats, "yaml"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got model.Statistics
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Equal(t, *stats, got)
	})

	t.Run("unknown format creates nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stats.csv")
		err := exportToFile(path, stats, "csv")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
		assert.NoFileExists(t, path)
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent", "stats.json")
		require.Error(t, exportToFile(path, stats, "json"))
		assert.NoFileExists(t, path)
	})
}

func TestStatsExportCmd_RejectsFormatBeforeWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.xml")

	cmd := statsExportCmd()
	cmd.SetArgs([]string{"--format", "xml", "--output", path})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown export format "xml"`)
	assert.NoFileExists(t, path)
}

func TestExportStatistics_WireNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportStatistics(&buf, testStatistics(), "json"))
	assert.Contains(t, buf.String(), `"absolutePositiveAccuracy": 3`)
	assert.Contains(t, buf.String(), `"relativeAccuracy": 75`)
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHistory(&buf, nil))
	assert.Contains(t, buf.String(), "No verdicts recorded yet.")

	buf.Reset()
	rated := time.Date(2026, 5, 2, 18, 30, 0, 0, time.Local)
	verdicts := []model.Verdict{
		{Label: model.LabelUpperCut, Hand: model.HandLeft, RatedAt: rated},
		{Label: model.LabelHookPunch, Hand: model.HandRight, RatedAt: rated,
			Correction: model.Correction{}.WithLabel(model.LabelNoAction)},
	}
	require.NoError(t, writeHistory(&buf, verdicts))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2026-05-02 18:30:00 ✓"))
	assert.Contains(t, lines[0], "UpperCut")
	assert.NotContains(t, lines[0], "→")
	assert.Contains(t, lines[1], "✗ HookPunch")
	assert.Contains(t, lines[1], "→ NoAction Right")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.want, confirm(strings.NewReader(tt.input), &out, "Delete?"))
			assert.Contains(t, out.String(), "[y/N]")
		})
	}
}

func TestPollSample(t *testing.T) {
	mock, client := startMock(t)
	sess := session.New(client, nil, nil)
	ctx := context.Background()

	require.NoError(t, pollSample(ctx, client, sess))
	first, ok := sess.Current()
	require.True(t, ok)
	assert.True(t, sess.ReadyForRating())

	require.NoError(t, pollSample(ctx, client, sess))
	again, _ := sess.Current()
	assert.Equal(t, first.Trace[0], again.Trace[0])

	mock.NextSample()
	require.NoError(t, pollSample(ctx, client, sess))
	next, _ := sess.Current()
	assert.True(t, next.IsNewerThan(&first))
}

func TestPollSample_Unreachable(t *testing.T) {
	client := backend.New(settings.Connection{Host: "http://127.0.0.1", Port: "1", Username: "u", Password: "p"},
		backend.WithTimeout(time.Second))
	sess := session.New(client, storage.NewMemoryStorage(), nil)

	err := pollSample(context.Background(), client, sess)
	require.Error(t, err)
	_, ok := sess.Current()
	assert.False(t, ok)
}

type flakyConnector struct {
	service.Connector
	failures int
	calls    int
	mu       sync.Mutex
}

func (f *flakyConnector) CheckConnectivity(context.Context) (service.ConnectivityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return service.ConnectivityResult{Message: "invalid username or password"}, nil
	}
	return service.ConnectivityResult{Success: true, Message: "connection established"}, nil
}

func TestWaitForBackend_Immediate(t *testing.T) {
	fc := &flakyConnector{}
	var attempts []service.ConnectivityResult

	result, err := waitForBackend(context.Background(), fc, time.Second, func(r service.ConnectivityResult) {
		attempts = append(attempts, r)
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, attempts, 1)
}

func TestWaitForBackend_Retries(t *testing.T) {
	fc := &flakyConnector{failures: 1}
	var mu sync.Mutex
	var failed int

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := waitForBackend(ctx, fc, time.Second, func(r service.ConnectivityResult) {
		if !r.Success {
			mu.Lock()
			failed++
			mu.Unlock()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "connection established", result.Message)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, failed)
}

func TestWhileScheduled(t *testing.T) {
	runner := schedule.NewRunner()
	t.Cleanup(func() { _ = runner.Stop(context.Background()) })

	calls := 0
	task := whileScheduled(runner, reconnectTask, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, task(context.Background()))
	assert.Equal(t, 0, calls, "unregistered task must not run")

	require.NoError(t, runner.Every(reconnectTask, time.Hour, task))
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, calls)

	runner.Remove(reconnectTask)
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, calls, "a tick after removal is dropped")
}

func TestWaitForBackend_Timeout(t *testing.T) {
	fc := &flakyConnector{failures: 100}

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	_, err := waitForBackend(ctx, fc, time.Second, func(service.ConnectivityResult) {})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
