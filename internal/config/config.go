package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers for the attempt ledger and the attempt lock.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

const defaultCooldownMinutes = 5

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI        string `yaml:"uri"`
		Database   string `yaml:"database"`
		Collection string `yaml:"collection"`
	} `yaml:"mongo"`
	Quiz struct {
		TTL             string `yaml:"ttl"`
		CooldownMinutes *int   `yaml:"cooldownMinutes"`
	} `yaml:"quiz"`
	Attempts struct {
		Ledger  string `yaml:"ledger"`
		Lock    string `yaml:"lock"`
		LockTTL string `yaml:"lockTTL"`
	} `yaml:"attempts"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path, applies env overrides and fills defaults.
// A missing file yields a default config.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, err
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if raw := os.Getenv("COOLDOWN_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("COOLDOWN_MINUTES: %w", err)
		}
		c.Quiz.CooldownMinutes = &minutes
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Quiz.CooldownMinutes == nil {
		minutes := defaultCooldownMinutes
		c.Quiz.CooldownMinutes = &minutes
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "quizzes"
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "quiz.events"
	}
	if c.Attempts.Ledger == "" {
		c.Attempts.Ledger = c.preferredDriver()
	}
	if c.Attempts.Lock == "" {
		c.Attempts.Lock = c.preferredDriver()
	}
}

func (c *Config) preferredDriver() string {
	switch {
	case c.Postgres.URL != "":
		return DriverPostgres
	case c.Redis.Addr != "":
		return DriverRedis
	default:
		return DriverMemory
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Quiz.CooldownMinutes != nil && *c.Quiz.CooldownMinutes < 0 {
		return fmt.Errorf("quiz.cooldownMinutes must not be negative, got %d", *c.Quiz.CooldownMinutes)
	}
	for name, driver := range map[string]string{"attempts.ledger": c.Attempts.Ledger, "attempts.lock": c.Attempts.Lock} {
		switch driver {
		case "", DriverMemory:
		case DriverRedis:
			if c.Redis.Addr == "" {
				return fmt.Errorf("%s is %q but redis.addr is empty", name, driver)
			}
		case DriverPostgres:
			if c.Postgres.URL == "" {
				return fmt.Errorf("%s is %q but postgres.url is empty", name, driver)
			}
		default:
			return fmt.Errorf("%s: unknown driver %q", name, driver)
		}
	}
	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required when mongo.uri is set")
	}
	return nil
}

// CooldownDuration is the window between two attempts of the same quiz.
func (c Config) CooldownDuration() time.Duration {
	minutes := defaultCooldownMinutes
	if c.Quiz.CooldownMinutes != nil {
		minutes = *c.Quiz.CooldownMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
