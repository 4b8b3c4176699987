package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// defaultPetNamespace derives the pet id used when PET_ID is unset, so the
// same save slot is found across restarts.
var defaultPetNamespace = uuid.MustParse("6f1f7a52-3c0e-4c7d-9a51-0b1c5d6e2f30")

type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level

	DataDir        string `env:"DATA_DIR" envDefault:"./data"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"file"`
	SaveDir        string `env:"SAVE_DIR" envDefault:"./saves"`
	RedisURL       string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	PublishEvents  bool   `env:"PUBLISH_EVENTS" envDefault:"false"`

	PetID      uuid.UUID `env:"PET_ID"`
	RandomSeed uint64    `env:"RANDOM_SEED" envDefault:"0"`

	StatsInterval    time.Duration `env:"STATS_INTERVAL" envDefault:"1s"`
	BehaviorInterval time.Duration `env:"BEHAVIOR_INTERVAL" envDefault:"3s"`
	EventInterval    time.Duration `env:"EVENT_INTERVAL" envDefault:"30s"`
	AutosaveInterval time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"300s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if cfg.PetID == uuid.Nil {
		cfg.PetID = uuid.NewSHA1(defaultPetNamespace, []byte("default-pet"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.StorageBackend {
	case BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendFile, BackendRedis, c.StorageBackend))
	}
	if c.StorageBackend == BackendFile && c.SaveDir == "" {
		errs = append(errs, errors.New("SAVE_DIR is required for the file backend"))
	}
	if (c.StorageBackend == BackendRedis || c.PublishEvents) && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required for the redis backend and event publishing"))
	}
	for name, d := range map[string]time.Duration{
		"STATS_INTERVAL":    c.StatsInterval,
		"BEHAVIOR_INTERVAL": c.BehaviorInterval,
		"EVENT_INTERVAL":    c.EventInterval,
		"AUTOSAVE_INTERVAL": c.AutosaveInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	return errors.Join(errs...)
}

// UsesRedis reports whether anything needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.StorageBackend == BackendRedis || c.PublishEvents
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
