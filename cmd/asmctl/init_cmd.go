package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/config"
	"github.com/hakim/asmctl/internal/storage"
)

var (
	initForce bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize asmctl with default configuration",
	Long: `Creates a default configuration file (asmctl.yaml), the report download
directory and the persistent session store.

This is typically the first command you run. Point api.base_url at your
backend afterwards, or set ASM_API_BASE_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(initDir, "asmctl.yaml")

		// Check if config already exists
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("config file already exists at %s. Use --force to overwrite", configPath)
		}

		if err := storage.EnsureDir(initDir); err != nil {
			return fmt.Errorf("failed to create %s: %w", initDir, err)
		}
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("Created %s with default configuration\n", configPath)

		// Load the config we just created to get paths
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := storage.EnsureDir(cfg.Output.DownloadDir); err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}
		fmt.Printf("Created download directory: %s\n", cfg.Output.DownloadDir)

		store, err := storage.NewStore(cfg.Session.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		defer store.Close()
		fmt.Printf("Initialized session store: %s\n", cfg.Session.DBPath)

		fmt.Println()
		fmt.Println("asmctl initialized successfully!")
		fmt.Println("Run 'asmctl check' to verify the backend, then 'asmctl login'.")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "output directory")
	rootCmd.AddCommand(initCmd)
}
