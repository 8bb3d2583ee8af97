package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/punchdash/internal/common"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Connector == nil {
		return fmt.Errorf("%w: connector is required", common.ErrInvalidConfig)
	}

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "punchdash")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Warn("Failed to close log file", "error", closeErr)
			}
		}()

		previous := slog.Default()
		if err := common.SetupLoggerTo(f, cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}
		defer slog.SetDefault(previous)
	}

	program := tea.NewProgram(
		newModel(ctx, cfg),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
