package tui

import (
	"log/slog"
	"time"

	"github.com/Veraticus/punchdash/internal/metrics"
	"github.com/Veraticus/punchdash/internal/service"
	"github.com/Veraticus/punchdash/internal/settings"
	"github.com/Veraticus/punchdash/internal/tui/themes"
)

// Connector is a backend connector whose connection can be changed while
// the dashboard runs.
type Connector interface {
	service.Connector
	Reconfigure(conn settings.Connection)
}

// Config holds TUI configuration.
type Config struct {
	Theme             themes.Theme
	Storage           service.Storage
	Connector         Connector
	Recorder          metrics.Recorder
	Connection        settings.Connection
	LogFile           string
	LogFormat         string
	SampleInterval    time.Duration
	ReconnectInterval time.Duration
	DeleteLabelTTL    time.Duration
	RequestTimeout    time.Duration
	Width             int
	Height            int
	LogLevel          slog.Level
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:             themes.Default,
		Recorder:          metrics.Nop{},
		SampleInterval:    2 * time.Second,
		ReconnectInterval: 2 * time.Second,
		DeleteLabelTTL:    2 * time.Second,
		RequestTimeout:    15 * time.Second,
		Width:             100,
		Height:            40,
		LogLevel:          slog.LevelInfo,
	}
}

// WithStorage sets the local storage used for settings, the statistics
// cache and verdict history.
func WithStorage(storage service.Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithConnector sets the backend connector.
func WithConnector(connector Connector) Option {
	return func(c *Config) {
		c.Connector = connector
	}
}

// WithConnection sets the connection shown in the settings view.
func WithConnection(conn settings.Connection) Option {
	return func(c *Config) {
		c.Connection = conn
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithIntervals sets the sample and reconnect poll intervals.
func WithIntervals(sample, reconnect time.Duration) Option {
	return func(c *Config) {
		if sample > 0 {
			c.SampleInterval = sample
		}
		if reconnect > 0 {
			c.ReconnectInterval = reconnect
		}
	}
}

// WithLogFile redirects logging to path while the dashboard runs.
func WithLogFile(path string, level slog.Level, format string) Option {
	return func(c *Config) {
		c.LogFile = path
		c.LogLevel = level
		c.LogFormat = format
	}
}
