package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/punchdash/internal/cli"
	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "punchdash",
		Short: "🥊 Dashboard for a punch classification backend",
		Long: `punchdash watches the punches recognized by a classification backend,
lets you confirm or correct each prediction, and keeps the accuracy
statistics on the backend up to date.

Run without a subcommand to open the dashboard.`,
		PersistentPreRunE: initConfig,
		RunE:              runDashboard,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/punchdash/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: "+config.DefaultDatabasePath+")")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyDatabasePath, rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag(config.KeyMetricsAddr, rootCmd.PersistentFlags().Lookup("metrics-addr"))

	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(settingsCmd())
	rootCmd.AddCommand(mockBackendCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	handler := cli.NewInterruptHandler(os.Stderr)
	ctx, cancel := handler.HandleInterrupts(context.Background(), "Verdicts already sent are saved on the backend.")

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil && !handler.WasInterrupted() {
		fmt.Fprintln(os.Stderr, cli.FormatError(common.UserMessage(err)))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/punchdash", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PUNCHDASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("punchdash version", "version", version)
		},
	}
}
