package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/punchdash/internal/cli"
	"github.com/Veraticus/punchdash/internal/schedule"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const reconnectTask = "reconnect"

func connectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Wait until the backend accepts the configured credentials",
		Long: `Check the backend connection every poll.reconnect_interval until it
succeeds, showing a spinner meanwhile. Useful in scripts that must not
start before the backend is up.`,
		RunE: runConnect,
	}

	cmd.Flags().Duration("timeout", 0, "give up after this long (0 waits forever)")

	return cmd
}

func runConnect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	env, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("connecting to "+env.client.Address()),
		progressbar.OptionClearOnFinish(),
	)
	stopSpinner := spin(bar)

	result, err := waitForBackend(ctx, env.client, env.app.ReconnectInterval, func(r service.ConnectivityResult) {
		if !r.Success {
			bar.Describe(fmt.Sprintf("connecting to %s (%s)", env.client.Address(), r.Message))
		}
	})
	stopSpinner()
	if err != nil {
		return fmt.Errorf("backend not reachable at %s: %w", env.client.Address(), err)
	}

	_, _ = fmt.Fprintln(os.Stdout, cli.FormatSuccess(fmt.Sprintf("connected to %s: %s", env.client.Address(), result.Message)))
	return nil
}

// spin animates bar until the returned stop function is called.
func spin(bar *progressbar.ProgressBar) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}

// whileScheduled drops ticks that fire after the named task was removed, so
// a tick dispatched just before success does not check again.
func whileScheduled(runner *schedule.Runner, name string, task schedule.Task) schedule.Task {
	return func(ctx context.Context) error {
		if !runner.Has(name) {
			return nil
		}
		return task(ctx)
	}
}

// waitForBackend checks connectivity right away and then every interval
// until it succeeds. The reconnect task removes itself on success.
func waitForBackend(ctx context.Context, connector service.Connector, interval time.Duration, onAttempt func(service.ConnectivityResult)) (service.ConnectivityResult, error) {
	runner := schedule.NewRunner()
	done := make(chan service.ConnectivityResult, 1)

	check := func(ctx context.Context) error {
		result, err := connector.CheckConnectivity(ctx)
		if err != nil {
			return err
		}
		onAttempt(result)
		if result.Success {
			runner.Remove(reconnectTask)
			select {
			case done <- result:
			default:
			}
		}
		return nil
	}

	if err := check(ctx); err != nil {
		return service.ConnectivityResult{}, err
	}
	select {
	case result := <-done:
		return result, nil
	default:
	}

	if err := runner.Every(reconnectTask, interval, whileScheduled(runner, reconnectTask, check)); err != nil {
		return service.ConnectivityResult{}, err
	}
	runner.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Stop(stopCtx)
	}()

	select {
	case result := <-done:
		return result, nil
	case <-ctx.Done():
		return service.ConnectivityResult{}, ctx.Err()
	}
}
