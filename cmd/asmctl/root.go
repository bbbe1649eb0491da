package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/config"
	"github.com/hakim/asmctl/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	noPersist bool
	cfg       *config.Config
	logger    = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "asmctl",
	Short: "Command-line client for the attack surface management platform",
	Long: `asmctl talks to the ASM platform backend: it signs you in, browses the
asset inventory, submits and follows scans, schedules scans for later,
and generates or downloads reports.

Configuration is read from asmctl.yaml (current directory or ~/.config/asmctl),
a .env file and ASM_* environment variables, e.g. ASM_API_BASE_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":       true,
			"help":       true,
			"version":    true,
			"completion": true,
		}

		if skipConfig[cmd.Name()] {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		l, err := logging.New(level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: asmctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "keep the sign-in only until reboot instead of persisting it")

	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
