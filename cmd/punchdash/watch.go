package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/schedule"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/session"
	"github.com/spf13/cobra"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the backend and log every new punch",
		Long: `Poll the backend for the latest punch without the interactive dashboard.

Every new punch is logged with its predicted type and hand. Combine with
--metrics-addr to expose request and sample counters to Prometheus.`,
		RunE: runWatch,
	}

	cmd.Flags().Duration("interval", 0, "sample poll interval (default: poll.sample_interval)")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	interval := env.app.SampleInterval
	if override, _ := cmd.Flags().GetDuration("interval"); override > 0 {
		interval = override
	}

	env.startMetrics(ctx)

	sess := session.New(env.client, env.store, env.store, session.WithRecorder(env.recorder))
	if stats, loadErr := sess.LoadStatistics(ctx); loadErr != nil {
		slog.Warn("Statistics unavailable", "error", loadErr)
	} else {
		slog.Info("Loaded statistics",
			"relative_accuracy", stats.RelativeAccuracy,
			"rated", stats.Total(),
			"cached", sess.Stale())
	}

	runner := schedule.NewRunner()
	if err := runner.Every("sample", interval, func(ctx context.Context) error {
		return pollSample(ctx, env.client, sess)
	}); err != nil {
		return err
	}
	runner.Start()

	slog.Info("Watching for punches", "backend", env.client.Address(), "interval", interval)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}

// pollSample fetches one sample and logs it when it is new.
func pollSample(ctx context.Context, connector service.Connector, sess *session.Session) error {
	result, err := connector.FetchSample(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch sample: %w", err)
	}

	if result.Status == service.SampleMalformed {
		slog.Warn("Received malformed sample", "error", result.Err)
	}
	if !sess.Observe(result) {
		return nil
	}

	sample, _ := sess.Current()
	ts, _, _, _ := sample.Axes()
	common.LogInfo("New punch", common.Fields{
		"label":       sample.Label.String(),
		"hand":        sample.Hand.String(),
		"readings":    len(sample.Trace),
		"duration_ms": ts[len(ts)-1] - ts[0],
	})
	return nil
}
