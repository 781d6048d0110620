package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
// Embed or extend it in your app's own AppConfig.
type Config struct {
	App     AppConfig
	Log     LogConfig
	Tracing TracingConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Name  string `validate:"required"`
	Env   string `validate:"oneof=local production testing"`
	Debug bool
	Port  string `validate:"required,numeric"`
}

type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `validate:"oneof=console json"`
}

// TracingConfig selects where multibind materialization spans go.
type TracingConfig struct {
	Enabled  bool
	Exporter string `validate:"oneof=stdout otlp none"`
	Endpoint string `validate:"required_if=Exporter otlp"`
}

type MetricsConfig struct {
	Enabled   bool
	Namespace string `validate:"required"`
	Path      string `validate:"startswith=/"`
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoLaravel"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			Port:  env("APP_PORT", "8000"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(env("LOG_LEVEL", "info")),
			Format: strings.ToLower(env("LOG_FORMAT", "console")),
		},
		Tracing: TracingConfig{
			Enabled:  envBool("TRACING_ENABLED", false),
			Exporter: strings.ToLower(env("TRACING_EXPORTER", "stdout")),
			Endpoint: env("TRACING_ENDPOINT", ""),
		},
		Metrics: MetricsConfig{
			Enabled:   envBool("METRICS_ENABLED", true),
			Namespace: env("METRICS_NAMESPACE", "golaravel"),
			Path:      env("METRICS_PATH", "/metrics"),
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section and reports all offending fields at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("config: %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
