// Package settings reads and writes the backend connection settings kept in
// the local key/value store.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Veraticus/punchdash/internal/common"
	"github.com/Veraticus/punchdash/internal/config"
	"github.com/Veraticus/punchdash/internal/service"
)

// Store keys.
const (
	KeyHost     = "server_ip"
	KeyPort     = "server_port"
	KeyUsername = "server_username"
	KeyPassword = "server_password"
)

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid connection settings")

// Connection holds the backend connection parameters.
type Connection struct {
	Host     string
	Port     string
	Username string
	Password string
}

// Defaults returns the built-in connection defaults.
func Defaults() config.ServerDefaults {
	return config.ServerDefaults{
		Host:     "localhost",
		Port:     "3000",
		Username: "username",
		Password: "password",
	}
}

// Load reads the connection settings, first seeding any absent key with its
// default. Seeding failures are logged and the default is still returned, so
// a store without persistence behaves as session-only.
func Load(ctx context.Context, store service.KeyValueStore, defaults config.ServerDefaults) (Connection, error) {
	if !store.Available() {
		slog.Warn("Settings storage is not persistent; settings only last for this session")
	}

	var conn Connection
	pairs := []struct {
		dst *string
		key string
		def string
	}{
		{&conn.Host, KeyHost, defaults.Host},
		{&conn.Port, KeyPort, defaults.Port},
		{&conn.Username, KeyUsername, defaults.Username},
		{&conn.Password, KeyPassword, defaults.Password},
	}

	for _, p := range pairs {
		value, ok, err := store.Get(ctx, p.key)
		if err != nil {
			return Connection{}, fmt.Errorf("failed to load setting %s: %w", p.key, err)
		}
		if !ok {
			value = p.def
			if setErr := store.Set(ctx, p.key, value); setErr != nil {
				common.LogError(setErr, "Failed to seed default setting", common.Fields{"key": p.key})
			}
		}
		*p.dst = value
	}

	return conn, nil
}

// Save normalizes and validates c, then writes all four keys.
func Save(ctx context.Context, store service.KeyValueStore, c Connection) (Connection, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Connection{}, err
	}

	values := map[string]string{
		KeyHost:     c.Host,
		KeyPort:     c.Port,
		KeyUsername: c.Username,
		KeyPassword: c.Password,
	}
	for _, key := range []string{KeyHost, KeyPort, KeyUsername, KeyPassword} {
		if err := store.Set(ctx, key, values[key]); err != nil {
			return Connection{}, fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	slog.Info("Saved connection settings", "host", c.Host, "port", c.Port, "username", c.Username)
	return c, nil
}

// Reset removes all connection keys so the next Load seeds defaults again.
func Reset(ctx context.Context, store service.KeyValueStore) error {
	for _, key := range []string{KeyHost, KeyPort, KeyUsername, KeyPassword} {
		if err := store.Remove(ctx, key); err != nil {
			return fmt.Errorf("failed to remove setting %s: %w", key, err)
		}
	}
	return nil
}

// Normalize trims whitespace and prefixes the host with http:// when it
// carries no scheme.
func (c Connection) Normalize() Connection {
	c.Host = strings.TrimSpace(c.Host)
	c.Port = strings.TrimSpace(c.Port)
	c.Username = strings.TrimSpace(c.Username)
	if c.Host != "" && !HasScheme(c.Host) {
		c.Host = "http://" + c.Host
	}
	for strings.HasSuffix(c.Host, "/") && !strings.HasSuffix(c.Host, "://") {
		c.Host = strings.TrimSuffix(c.Host, "/")
	}
	return c
}

// Validate checks the host and port.
func (c Connection) Validate() error {
	host := strings.TrimSpace(c.Host)
	if host == "" || host == "http://" || host == "https://" {
		return fmt.Errorf("%w: host is empty", ErrInvalidSettings)
	}
	port, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %q must be between 1 and 65535", ErrInvalidSettings, c.Port)
	}
	return nil
}

// Redacted returns a copy safe to log or print.
func (c Connection) Redacted() Connection {
	if c.Password != "" {
		c.Password = "********"
	}
	return c
}

// HasScheme reports whether host starts with http:// or https://.
func HasScheme(host string) bool {
	lower := strings.ToLower(host)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
