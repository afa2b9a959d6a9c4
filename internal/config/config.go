// Package config loads server configuration from the environment.
//
// Values come from real environment variables first, then from an optional
// .env file in the working directory. The .env file never overrides a
// variable that is already set, so a deployment can keep a checked-in
// .env for development defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config is the resolved server configuration.
type Config struct {
	Port     int
	LogLevel slog.Level

	StoreDriver string
	DBPath      string // sqlite
	MongoURI    string // mongo
	MongoDB     string // mongo

	// JWTSecret signs session cookies. When empty, authentication is off
	// and only the read routes are served.
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// AuthEnabled reports whether sign-in and the write routes are available.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Load reads the environment, falling back to the given .env files
// (".env" when none are named). Missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	fileEnv := map[string]string{}
	for _, path := range envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		for k, v := range values {
			if _, seen := fileEnv[k]; !seen {
				fileEnv[k] = v
			}
		}
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		StoreDriver:        strings.ToLower(get("STORE_DRIVER", DriverSQLite)),
		DBPath:             get("DB_PATH", "data/devblog.db"),
		MongoURI:           get("MONGO_URI", ""),
		MongoDB:            get("MONGO_DB", "devblog"),
		JWTSecret:          get("JWT_SECRET", ""),
		GitHubClientID:     get("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: get("GITHUB_CLIENT_SECRET", ""),
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("config: invalid PORT %q", get("PORT", ""))
	}
	cfg.Port = port

	level, err := ParseLevel(get("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.GitHubCallbackURL = get("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", port))

	switch cfg.StoreDriver {
	case DriverSQLite:
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("config: MONGO_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return nil, fmt.Errorf("config: unknown STORE_DRIVER %q (want sqlite or mongo)", cfg.StoreDriver)
	}

	return cfg, nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", s)
	}
	return level, nil
}

// NewLogger builds the text logger used across the server.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
