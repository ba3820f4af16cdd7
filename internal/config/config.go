package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

// Config is the process configuration, read from the environment
type Config struct {
	Port     string `env:"PORT" envDefault:"3001"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SessionStore  string `env:"SESSION_STORE" envDefault:"memory"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"partyGame"`
	RedisURI      string `env:"REDIS_URI"`
	BadgerPath    string `env:"BADGER_PATH" envDefault:"./data/sessions"`

	QuestionsPerRate int    `env:"QUESTIONS_PER_RATE" envDefault:"10"`
	DefaultSelection string `env:"DEFAULT_SELECTION" envDefault:"balanced"`
	DisconnectPolicy string `env:"DISCONNECT_POLICY" envDefault:"remove"`

	ReapInterval    time.Duration `env:"REAP_INTERVAL" envDefault:"1m"`
	EndedSessionTTL time.Duration `env:"ENDED_SESSION_TTL" envDefault:"10m"`
	IdleSessionTTL  time.Duration `env:"IDLE_SESSION_TTL" envDefault:"2h"`
	PoolCacheTTL    time.Duration `env:"POOL_CACHE_TTL" envDefault:"5m"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"password123"`
	JWTSecret     string `env:"JWT_SECRET" envDefault:"super-secret-key-change-in-production"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses the environment into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enum values and backend prerequisites
func (c *Config) Validate() error {
	var errs []error

	switch c.SessionStore {
	case StoreMemory, StoreBadger:
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("SESSION_STORE=mongo requires MONGO_URI"))
		}
	case StoreRedis:
		if c.RedisURI == "" {
			errs = append(errs, errors.New("SESSION_STORE=redis requires REDIS_URI"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore))
	}

	switch c.DefaultSelection {
	case "balanced", "progressive", "tag":
	default:
		errs = append(errs, fmt.Errorf("unknown DEFAULT_SELECTION %q", c.DefaultSelection))
	}

	switch c.DisconnectPolicy {
	case "remove", "retain":
	default:
		errs = append(errs, fmt.Errorf("unknown DISCONNECT_POLICY %q", c.DisconnectPolicy))
	}

	if c.QuestionsPerRate < 1 {
		errs = append(errs, fmt.Errorf("QUESTIONS_PER_RATE must be positive, got %d", c.QuestionsPerRate))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// NewLogger builds the process logger for the given level name
func NewLogger(level string) *slog.Logger {
	lvl, err := parseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", level)
	}
	return lvl, nil
}
