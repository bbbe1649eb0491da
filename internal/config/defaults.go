package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	dbPath := "session.db"
	if dir, err := configDir(); err == nil {
		dbPath = filepath.Join(dir, "session.db")
	}

	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "30s",
		},
		Session: SessionConfig{
			DBPath:     dbPath,
			ScopedPath: filepath.Join(os.TempDir(), fmt.Sprintf("asmctl-%d", os.Getuid()), "session.db"),
			Persist:    true,
		},
		Polling: PollingConfig{
			ScanInterval:     "2s",
			ScanCeiling:      "5m",
			ScheduleInterval: "5s",
			ScheduleCeiling:  "0s",
		},
		Output: OutputConfig{
			DownloadDir: "reports",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Notify: NotifyConfig{},
		Scope: ScopeConfig{
			AllowedDomains: []string{},
			AllowedCIDRs:   []string{},
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
