package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/catalog"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory, empty databases, and default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := app.dataDir
		if dataDir == "" {
			dataDir = defaultDataDir()
		}

		if _, err := os.Stat(dataDir); err == nil && !initForce {
			return newExitError(1, "data directory %s already exists (use --force to reinitialize)", dataDir)
		}

		for _, ct := range catalog.All() {
			if err := os.MkdirAll(filepath.Join(dataDir, "capture", ct.OutputDir), 0o755); err != nil {
				return newExitError(2, "creating capture directory: %v", err)
			}
		}
		if err := os.MkdirAll(filepath.Join(dataDir, "diffs"), 0o755); err != nil {
			return newExitError(2, "creating diffs directory: %v", err)
		}
		if err := os.MkdirAll(filepath.Join(dataDir, "discovery"), 0o755); err != nil {
			return newExitError(2, "creating discovery directory: %v", err)
		}

		st, err := store.Open(assetsPath(dataDir), arpPath(dataDir))
		if err != nil {
			return newExitError(2, "initializing databases: %v", err)
		}
		defer st.Close()

		cfg := config.Default()
		cfg.DataDir = dataDir
		cfgPath := filepath.Join(dataDir, "config.yaml")
		if err := config.Save(cfgPath, cfg); err != nil {
			return newExitError(2, "writing default configuration: %v", err)
		}

		// User management (LDAP/local/database authentication backends) is
		// an external collaborator per the system's scope — this command
		// provisions the CMDB's own state only, not an auth store.
		fmt.Printf("initialized %s\n", dataDir)
		fmt.Printf("  assets.db, arp_cat.db created\n")
		fmt.Printf("  default configuration written to %s\n", cfgPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if the data directory already exists")
}
