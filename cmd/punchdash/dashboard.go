package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/config"
	"github.com/Veraticus/punchdash/internal/tui"
	"github.com/Veraticus/punchdash/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		Long: `Open the terminal dashboard.

The Dashboard view shows the last punch with its accelerometer trace and
prediction, lets you confirm or correct it, and shows the accuracy
statistics. The Settings view edits the backend connection. Press Tab to
switch views.

While the dashboard runs, logs are written to a file next to the database
unless --log-file is given.`,
		RunE: runDashboard,
	}

	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().String("log-file", "", "write logs to this file while the dashboard runs")
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))
	_ = viper.BindPFlag("logging.file", cmd.Flags().Lookup("log-file"))

	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}

	logFile := config.ExpandPath(viper.GetString("logging.file"))
	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(env.app.DatabasePath), "dashboard.log")
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	env.startMetrics(ctx)

	if err := tui.Run(ctx,
		tui.WithStorage(env.store),
		tui.WithConnector(env.client),
		tui.WithConnection(env.conn),
		tui.WithRecorder(env.recorder),
		tui.WithIntervals(env.app.SampleInterval, env.app.ReconnectInterval),
		tui.WithTheme(themes.GetTheme(viper.GetString("tui.theme"))),
		tui.WithLogFile(logFile, level, viper.GetString("logging.format")),
	); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
