package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "JOBTRIAGE_CONFIG"

	defaultBaseURL      = "http://localhost:8000/api"
	defaultTimeout      = 15 * time.Second
	defaultPollInterval = 2 * time.Second
	minPollInterval     = 100 * time.Millisecond
	defaultSuccessTTL   = 3 * time.Second
	defaultErrorTTL     = 5 * time.Second
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Config holds high-level settings required across the application.
type Config struct {
	Service ServiceConfig `yaml:"service" envPrefix:"JOBTRIAGE_SERVICE_"`
	Polling PollingConfig `yaml:"polling" envPrefix:"JOBTRIAGE_POLLING_"`
	Status  StatusConfig  `yaml:"status" envPrefix:"JOBTRIAGE_STATUS_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"JOBTRIAGE_LOG_"`

	warnings []string
}

// ServiceConfig describes how to reach the job-processing service.
type ServiceConfig struct {
	BaseURL string        `yaml:"baseUrl" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// PollingConfig controls the refresh loop.
type PollingConfig struct {
	Interval      time.Duration `yaml:"interval" env:"INTERVAL"`
	IncludeFailed bool          `yaml:"includeFailed" env:"INCLUDE_FAILED"`
}

// StatusConfig sets how long action outcomes stay visible.
type StatusConfig struct {
	SuccessTTL time.Duration `yaml:"successTTL" env:"SUCCESS_TTL"`
	ErrorTTL   time.Duration `yaml:"errorTTL" env:"ERROR_TTL"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Options override where Load looks. Zero values mean the process defaults.
type Options struct {
	// Path of the YAML file; defaults to $JOBTRIAGE_CONFIG.
	Path string
	// EnvFiles are dotenv files; defaults to .env. Missing files are ignored.
	EnvFiles []string
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return LoadWith(Options{})
}

// LoadWith applies defaults, then the YAML file, then dotenv and environment
// overrides, and finally sanitises the result.
func LoadWith(opts Options) (Config, error) {
	cfg := defaultConfig()

	environment := env.ToMap(os.Environ())
	if opts.Environment != nil {
		environment = make(map[string]string, len(opts.Environment))
		for k, v := range opts.Environment {
			environment[k] = v
		}
	}

	files := opts.EnvFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				continue
			}
			return cfg, fmt.Errorf("load %s: %w", file, err)
		}
		for k, v := range values {
			if _, set := environment[k]; !set {
				environment[k] = v
			}
		}
	}

	path := opts.Path
	if path == "" {
		path = environment[configPathEnv]
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// Sanitize reverts invalid values to their defaults and records a warning for each.
func (c *Config) Sanitize() {
	if u, err := url.Parse(c.Service.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.warn("service.baseUrl %q is not an http(s) URL, using %s", c.Service.BaseURL, defaultBaseURL)
		c.Service.BaseURL = defaultBaseURL
	}
	if c.Service.Timeout <= 0 {
		c.warn("service.timeout %s must be positive, using %s", c.Service.Timeout, defaultTimeout)
		c.Service.Timeout = defaultTimeout
	}
	if c.Polling.Interval < minPollInterval {
		c.warn("polling.interval %s is below %s, using %s", c.Polling.Interval, minPollInterval, defaultPollInterval)
		c.Polling.Interval = defaultPollInterval
	}
	if c.Status.SuccessTTL <= 0 {
		c.warn("status.successTTL %s must be positive, using %s", c.Status.SuccessTTL, defaultSuccessTTL)
		c.Status.SuccessTTL = defaultSuccessTTL
	}
	if c.Status.ErrorTTL <= 0 {
		c.warn("status.errorTTL %s must be positive, using %s", c.Status.ErrorTTL, defaultErrorTTL)
		c.Status.ErrorTTL = defaultErrorTTL
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		c.warn("logging.level %q is unknown, using %s", c.Logging.Level, defaultLogLevel)
		c.Logging.Level = defaultLogLevel
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "text", "json":
	default:
		c.warn("logging.format %q is unknown, using %s", c.Logging.Format, defaultLogFormat)
		c.Logging.Format = defaultLogFormat
	}
}

// Warnings lists what Sanitize had to correct.
func (c Config) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

func (c *Config) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func defaultConfig() Config {
	return Config{
		Service: ServiceConfig{BaseURL: defaultBaseURL, Timeout: defaultTimeout},
		Polling: PollingConfig{Interval: defaultPollInterval},
		Status:  StatusConfig{SuccessTTL: defaultSuccessTTL, ErrorTTL: defaultErrorTTL},
		Logging: LoggingConfig{Level: defaultLogLevel, Format: defaultLogFormat},
	}
}
