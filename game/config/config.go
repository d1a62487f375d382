package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the resolved server settings
type Config struct {
	Host  string
	Port  int
	Debug bool

	// Browser origins allowed to open a WebSocket; empty or "*" means any
	CORSOrigins []string

	PingInterval   time.Duration
	PingTimeout    time.Duration
	MaxMessageSize int64

	StaticDir string

	Ngrok NgrokConfig
}

// NgrokConfig controls the optional public tunnel
type NgrokConfig struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

// Default returns the stock settings
func Default() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           3000,
		CORSOrigins:    []string{"*"},
		PingInterval:   25 * time.Second,
		PingTimeout:    60 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Validate checks the settings for values the server cannot run with
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.PingInterval <= 0 || c.PingTimeout <= 0 {
		return fmt.Errorf("%w: ping interval and timeout must be positive", ErrInvalidConfig)
	}
	if c.PingInterval >= c.PingTimeout {
		return fmt.Errorf("%w: ping interval %s must be shorter than ping timeout %s",
			ErrInvalidConfig, c.PingInterval, c.PingTimeout)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: max message size must be positive", ErrInvalidConfig)
	}
	if c.Ngrok.Enabled && c.Ngrok.AuthToken == "" {
		return fmt.Errorf("%w: ngrok requires an auth token", ErrInvalidConfig)
	}
	return nil
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseOrigins splits a comma-separated origin list, dropping blanks
func ParseOrigins(s string) []string {
	var origins []string
	for _, part := range strings.Split(s, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
