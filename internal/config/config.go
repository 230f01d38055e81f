package config

import (
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RefreshSkew    time.Duration `yaml:"refresh_skew"`
	StoreDSN       string        `yaml:"store_dsn"`
	LogMode        string        `yaml:"log_mode"`
	Sandbox        SandboxConfig `yaml:"sandbox"`
}

// SandboxConfig configures the development backend. Risk and Confidence
// are the canned prediction it hands out for every check.
type SandboxConfig struct {
	Addr       string        `yaml:"addr"`
	DSN        string        `yaml:"dsn"`
	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	Risk       string        `yaml:"risk"`
	Confidence float64       `yaml:"confidence"`
}

func Default() Config {
	return Config{
		APIBaseURL:     "http://localhost:8080/api",
		RequestTimeout: 15 * time.Second,
		RefreshSkew:    time.Minute,
		StoreDSN:       "memory",
		LogMode:        "dev",
		Sandbox: SandboxConfig{
			Addr:       ":8080",
			DSN:        "sqlite://file:cardiocheck-sandbox?mode=memory&cache=shared",
			JWTSecret:  "cardiocheck-dev-secret",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
			Risk:       "low",
			Confidence: 0.92,
		},
	}
}

// Load reads, lowest precedence first: defaults, the YAML file named by
// CARDIO_CONFIG_FILE, a .env file in the working directory, then the
// process environment.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CARDIO_CONFIG_FILE")); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.APIBaseURL = SafeEnv("CARDIO_API_BASE_URL", c.APIBaseURL)
	c.StoreDSN = SafeEnv("CARDIO_STORE_DSN", c.StoreDSN)
	c.LogMode = SafeEnv("CARDIO_LOG_MODE", c.LogMode)
	c.Sandbox.Addr = SafeEnv("CARDIO_SANDBOX_ADDR", c.Sandbox.Addr)
	c.Sandbox.DSN = SafeEnv("CARDIO_SANDBOX_DSN", c.Sandbox.DSN)
	c.Sandbox.JWTSecret = SafeEnv("CARDIO_SANDBOX_JWT_SECRET", c.Sandbox.JWTSecret)
	c.Sandbox.Risk = SafeEnv("CARDIO_SANDBOX_RISK", c.Sandbox.Risk)

	var err error
	if c.RequestTimeout, err = DurationEnv("CARDIO_REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.RefreshSkew, err = DurationEnv("CARDIO_REFRESH_SKEW", c.RefreshSkew); err != nil {
		return err
	}
	if c.Sandbox.AccessTTL, err = DurationEnv("CARDIO_SANDBOX_ACCESS_TTL", c.Sandbox.AccessTTL); err != nil {
		return err
	}
	if c.Sandbox.RefreshTTL, err = DurationEnv("CARDIO_SANDBOX_REFRESH_TTL", c.Sandbox.RefreshTTL); err != nil {
		return err
	}
	if v := SafeEnv("CARDIO_SANDBOX_CONFIDENCE", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CARDIO_SANDBOX_CONFIDENCE: %w", err)
		}
		c.Sandbox.Confidence = f
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("CARDIO_API_BASE_URL required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("CARDIO_REQUEST_TIMEOUT must be positive")
	}
	if c.RefreshSkew < 0 {
		return errors.New("CARDIO_REFRESH_SKEW must not be negative")
	}
	switch c.Sandbox.Risk {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("CARDIO_SANDBOX_RISK must be low, medium or high, got %q", c.Sandbox.Risk)
	}
	if c.Sandbox.Confidence < 0 || c.Sandbox.Confidence > 1 {
		return errors.New("CARDIO_SANDBOX_CONFIDENCE must be within [0,1]")
	}
	return nil
}

// SafeEnv returns the environment variable value for key, or fallback if empty.
func SafeEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func DurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
