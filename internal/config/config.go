package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ASM_API_BASE_URL
const EnvPrefix = "ASM"

// Config represents the application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Polling PollingConfig `mapstructure:"polling" yaml:"polling"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
	Scope   ScopeConfig   `mapstructure:"scope" yaml:"scope"`
}

// APIConfig locates the backend
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Timeout bounds ordinary requests. Scan creation and PDF downloads are never bounded.
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// SessionConfig locates the two token stores
type SessionConfig struct {
	DBPath     string `mapstructure:"db_path" yaml:"db_path"`
	ScopedPath string `mapstructure:"scoped_path" yaml:"scoped_path"`
	Persist    bool   `mapstructure:"persist" yaml:"persist"`
}

// PollingConfig controls the scan and schedule watchers
type PollingConfig struct {
	ScanInterval     string `mapstructure:"scan_interval" yaml:"scan_interval"`
	ScanCeiling      string `mapstructure:"scan_ceiling" yaml:"scan_ceiling"`
	ScheduleInterval string `mapstructure:"schedule_interval" yaml:"schedule_interval"`
	// ScheduleCeiling of zero means the schedule watcher runs until cancelled.
	ScheduleCeiling string `mapstructure:"schedule_ceiling" yaml:"schedule_ceiling"`
}

// OutputConfig controls where downloaded artifacts land
type OutputConfig struct {
	DownloadDir string `mapstructure:"download_dir" yaml:"download_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// NotifyConfig configures the optional scan completion webhook
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

// ScopeConfig restricts scan targets. Empty lists allow anything.
type ScopeConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains" yaml:"allowed_domains"`
	AllowedCIDRs   []string `mapstructure:"allowed_cidrs" yaml:"allowed_cidrs"`
}

// Load reads configuration from defaults, an optional YAML file, a .env file
// and ASM_* environment variables, in increasing precedence.
// If path is empty, searches for asmctl.yaml in the current directory and
// ~/.config/asmctl/; a missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("asmctl")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)

	v.SetDefault("session.db_path", d.Session.DBPath)
	v.SetDefault("session.scoped_path", d.Session.ScopedPath)
	v.SetDefault("session.persist", d.Session.Persist)

	v.SetDefault("polling.scan_interval", d.Polling.ScanInterval)
	v.SetDefault("polling.scan_ceiling", d.Polling.ScanCeiling)
	v.SetDefault("polling.schedule_interval", d.Polling.ScheduleInterval)
	v.SetDefault("polling.schedule_ceiling", d.Polling.ScheduleCeiling)

	v.SetDefault("output.download_dir", d.Output.DownloadDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("notify.webhook_url", d.Notify.WebhookURL)
	v.SetDefault("scope.allowed_domains", d.Scope.AllowedDomains)
	v.SetDefault("scope.allowed_cidrs", d.Scope.AllowedCIDRs)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url cannot be empty"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}

	durations := []struct{ key, value string }{
		{"api.timeout", c.API.Timeout},
		{"polling.scan_interval", c.Polling.ScanInterval},
		{"polling.scan_ceiling", c.Polling.ScanCeiling},
		{"polling.schedule_interval", c.Polling.ScheduleInterval},
		{"polling.schedule_ceiling", c.Polling.ScheduleCeiling},
	}
	for _, dur := range durations {
		d, err := time.ParseDuration(dur.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dur.key, err))
			continue
		}
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", dur.key))
		}
	}

	if d, err := time.ParseDuration(c.Polling.ScanInterval); err == nil && d == 0 {
		errs = append(errs, errors.New("polling.scan_interval must be positive"))
	}
	if d, err := time.ParseDuration(c.Polling.ScheduleInterval); err == nil && d == 0 {
		errs = append(errs, errors.New("polling.schedule_interval must be positive"))
	}

	if c.Session.DBPath == "" {
		errs = append(errs, errors.New("session.db_path cannot be empty"))
	}
	if c.Session.ScopedPath == "" {
		errs = append(errs, errors.New("session.scoped_path cannot be empty"))
	}
	if c.Session.DBPath != "" && c.Session.DBPath == c.Session.ScopedPath {
		errs = append(errs, errors.New("session.db_path and session.scoped_path must differ"))
	}

	for _, cidr := range c.Scope.AllowedCIDRs {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errs = append(errs, fmt.Errorf("scope.allowed_cidrs: %w", err))
		}
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// RequestTimeout returns the bounded request timeout
func (c *Config) RequestTimeout() time.Duration {
	return mustDuration(c.API.Timeout)
}

// ScanPoll returns the scan watcher interval and ceiling
func (c *Config) ScanPoll() (interval, ceiling time.Duration) {
	return mustDuration(c.Polling.ScanInterval), mustDuration(c.Polling.ScanCeiling)
}

// SchedulePoll returns the schedule watcher interval and ceiling
func (c *Config) SchedulePoll() (interval, ceiling time.Duration) {
	return mustDuration(c.Polling.ScheduleInterval), mustDuration(c.Polling.ScheduleCeiling)
}

// mustDuration parses a duration that Validate has already accepted.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// configDir returns ~/.config/asmctl
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "asmctl"), nil
}
