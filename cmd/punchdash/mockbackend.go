package main

import (
	"log/slog"

	"github.com/Veraticus/punchdash/internal/mockserver"
	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/spf13/cobra"
)

func mockBackendCmd() *cobra.Command {
	defaults := settings.Defaults()

	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run a local backend that generates random punches",
		Long: `Serve the backend API locally with random accelerometer samples and
in-memory statistics. Point the dashboard at it to try things out without
the recognition hardware.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			interval, _ := cmd.Flags().GetDuration("sample-interval")

			opts := []mockserver.Option{mockserver.WithSampleInterval(interval)}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				opts = append(opts, mockserver.WithSeed(seed))
			}

			server := mockserver.New(username, password, opts...)
			slog.Info("Mock backend listening", "addr", addr, "username", username)
			return server.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().String("addr", ":"+defaults.Port, "listen address")
	cmd.Flags().String("username", defaults.Username, "accepted username")
	cmd.Flags().String("password", defaults.Password, "accepted password")
	cmd.Flags().Duration("sample-interval", mockserver.DefaultSampleInterval, "how often a new punch is generated")
	cmd.Flags().Int64("seed", 0, "random seed for reproducible samples")

	return cmd
}

