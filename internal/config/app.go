// Package config resolves application configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyDatabasePath      = "database.path"
	KeyServerHost        = "server.host"
	KeyServerPort        = "server.port"
	KeyServerUsername    = "server.username"
	KeyServerPassword    = "server.password"
	KeySampleInterval    = "poll.sample_interval"
	KeyReconnectInterval = "poll.reconnect_interval"
	KeyHTTPTimeout       = "http.timeout"
	KeyMetricsAddr       = "metrics.addr"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/punchdash/punchdash.db"

// App holds the resolved application configuration.
type App struct {
	DatabasePath      string
	MetricsAddr       string
	ServerDefaults    ServerDefaults
	SampleInterval    time.Duration
	ReconnectInterval time.Duration
	HTTPTimeout       time.Duration
}

// ServerDefaults are the connection values seeded into an empty settings store.
type ServerDefaults struct {
	Host     string
	Port     string
	Username string
	Password string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyServerHost, "localhost")
	v.SetDefault(KeyServerPort, "3000")
	v.SetDefault(KeyServerUsername, "username")
	v.SetDefault(KeyServerPassword, "password")
	v.SetDefault(KeySampleInterval, 2*time.Second)
	v.SetDefault(KeyReconnectInterval, 2*time.Second)
	v.SetDefault(KeyHTTPTimeout, 10*time.Second)
	v.SetDefault(KeyMetricsAddr, "")
}

// Load resolves the application configuration from v.
func Load(v *viper.Viper) (App, error) {
	cfg := App{
		DatabasePath:      ExpandPath(v.GetString(KeyDatabasePath)),
		MetricsAddr:       v.GetString(KeyMetricsAddr),
		SampleInterval:    v.GetDuration(KeySampleInterval),
		ReconnectInterval: v.GetDuration(KeyReconnectInterval),
		HTTPTimeout:       v.GetDuration(KeyHTTPTimeout),
		ServerDefaults: ServerDefaults{
			Host:     v.GetString(KeyServerHost),
			Port:     v.GetString(KeyServerPort),
			Username: v.GetString(KeyServerUsername),
			Password: v.GetString(KeyServerPassword),
		},
	}

	if cfg.SampleInterval <= 0 {
		return App{}, fmt.Errorf("%w: %s must be positive", common.ErrInvalidConfig, KeySampleInterval)
	}
	if cfg.ReconnectInterval <= 0 {
		return App{}, fmt.Errorf("%w: %s must be positive", common.ErrInvalidConfig, KeyReconnectInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return App{}, fmt.Errorf("%w: %s must be positive", common.ErrInvalidConfig, KeyHTTPTimeout)
	}
	if cfg.DatabasePath == "" {
		return App{}, fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}

	return cfg, nil
}

// ExpandPath expands a leading ~ and any $VAR references in path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}
