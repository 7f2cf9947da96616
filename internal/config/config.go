package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Config holds the runtime settings of the engine binary.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	// Workers bounds parallel systems per stage; 0 means GOMAXPROCS.
	Workers           int    `yaml:"workers"`
	DebugAccessChecks bool   `yaml:"debug_access_checks"`
	FaultPolicy       string `yaml:"fault_policy"`
	// TickRate is frames per second. 0 runs frames back to back.
	TickRate int `yaml:"tick_rate"`
	// MaxFrames stops the loop after that many frames; 0 runs until shutdown.
	MaxFrames          uint64 `yaml:"max_frames"`
	QueryCacheCapacity int    `yaml:"query_cache_capacity"`
}

func Default() Config {
	return Config{
		Environment:        Development,
		LogFormat:          "text",
		FaultPolicy:        "continue",
		TickRate:           60,
		QueryCacheCapacity: 1024,
	}
}

// Load builds a Config from defaults, then the YAML file at path when path is
// not empty, then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.fillLogLevel()
	return cfg, cfg.Validate()
}

// applyEnv overlays non-empty environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("RUSTGINE_ENV"); v != "" {
		c.Environment = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("RUSTGINE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: RUSTGINE_WORKERS=%q: %w", v, err)
		}
		c.Workers = n
	}
	return nil
}

// fillLogLevel derives the level from the environment unless one was set.
func (c *Config) fillLogLevel() {
	if c.LogLevel != "" {
		return
	}
	if c.Environment == Development {
		c.LogLevel = "debug"
	} else {
		c.LogLevel = "info"
	}
}

// MaxTickRate bounds TickRate so the frame interval stays above zero.
const MaxTickRate = 10000

func (c Config) Validate() error {
	var errs []error
	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("config: unknown environment %q", c.Environment))
	}
	switch c.FaultPolicy {
	case "", "continue", "abort":
	default:
		errs = append(errs, fmt.Errorf("config: unknown fault policy %q", c.FaultPolicy))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("config: workers must not be negative, got %d", c.Workers))
	}
	if c.TickRate < 0 || c.TickRate > MaxTickRate {
		errs = append(errs, fmt.Errorf("config: tick rate must be between 0 and %d, got %d", MaxTickRate, c.TickRate))
	}
	if c.QueryCacheCapacity < 0 {
		errs = append(errs, fmt.Errorf("config: query cache capacity must not be negative, got %d", c.QueryCacheCapacity))
	}
	return errors.Join(errs...)
}
