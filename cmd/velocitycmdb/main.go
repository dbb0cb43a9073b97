// Command velocitycmdb is the CLI surface for the network
// configuration-management database: discovery, fingerprinting,
// collection, change-archive/parse-and-load, and recurring job
// scheduling, plus a thin web server exposing health and progress over
// HTTP for any frontend.
//
//	velocitycmdb init [--force]
//	velocitycmdb run [--host H] [--port P] [--ssl] [--no-debug]
//	velocitycmdb discover --seed IP --username U --password P [--site NAME]
//	velocitycmdb fingerprint --inventory PATH --username U --password P
//	velocitycmdb collect --devices SEL --types T1,T2 --username U --password P
//	velocitycmdb job {create|list|show|run|enable|disable|delete}
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scottpeterman/velocitycmdb/internal/audit"
	"github.com/scottpeterman/velocitycmdb/internal/cmdctx"
	"github.com/scottpeterman/velocitycmdb/internal/collection"
	"github.com/scottpeterman/velocitycmdb/internal/config"
	"github.com/scottpeterman/velocitycmdb/internal/logging"
	"github.com/scottpeterman/velocitycmdb/internal/store"
)

// App holds CLI state shared across all commands, threaded through
// PersistentPreRunE rather than package-level globals.
type App struct {
	dataDir    string
	configPath string
	verbose    bool
	jsonOut    bool

	cfg      *config.Config
	cc       *cmdctx.Context
	st       *store.Store
	reg      *collection.Registry
	auditLog *audit.FileLogger
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:           "velocitycmdb",
	Short:         "Network configuration-management database",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `velocitycmdb discovers, fingerprints, and periodically captures
operational state from a multi-vendor network device fleet, tracking
intentional configuration changes over time.

  velocitycmdb init
  velocitycmdb discover --seed 10.0.0.1 --username admin --password admin
  velocitycmdb fingerprint --inventory discovery/sessions.yaml --username admin --password admin
  velocitycmdb collect --devices all --types configs,version --username admin --password admin
  velocitycmdb job create nightly --schedule "0 2 * * *" --inventory discovery/sessions.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isHelpOrInit(cmd) {
			return nil
		}

		if app.verbose {
			logging.SetLevel("debug")
		}
		if app.jsonOut {
			logging.SetJSONFormat()
		}

		if app.dataDir == "" {
			app.dataDir = defaultDataDir()
		}

		var err error
		app.cfg, err = resolveConfig(app.configPath, app.dataDir)
		if err != nil {
			return err
		}

		app.cc = cmdctx.New(app.dataDir, collection.EnvCredentialSource{})
		app.reg = collection.NewRegistry()

		app.st, err = store.Open(assetsPath(app.dataDir), arpPath(app.dataDir))
		if err != nil {
			return err
		}

		app.auditLog, err = audit.NewFileLogger(filepath.Join(app.dataDir, "audit.log"), audit.RotationConfig{
			MaxSize:    10 << 20,
			MaxBackups: 5,
		})
		if err != nil {
			return err
		}
		audit.SetDefaultLogger(app.auditLog)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app.auditLog != nil {
			app.auditLog.Close()
		}
		if app.st != nil {
			return app.st.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.dataDir, "data-dir", "", "Base directory for databases, captures, and diffs (default $DATA_DIR or ~/.velocitycmdb/data)")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Path to configuration file (default $CONFIG, then DATA_DIR/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOut, "json", false, "JSON output for progress and logs")

	rootCmd.AddCommand(initCmd, runCmd, discoverCmd, fingerprintCmd, collectCmd, jobCmd, versionCmd)
}

func defaultDataDir() string {
	if d := os.Getenv("DATA_DIR"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".velocitycmdb", "data")
}

func resolveConfig(explicitPath, dataDir string) (*config.Config, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(filepath.Join(dataDir, "config.yaml")); err == nil {
			path = filepath.Join(dataDir, "config.yaml")
		}
	}
	if path == "" {
		cfg := config.Default()
		cfg.DataDir = dataDir
		return cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

func assetsPath(dataDir string) string { return filepath.Join(dataDir, "assets.db") }
func arpPath(dataDir string) string    { return filepath.Join(dataDir, "arp_cat.db") }
func captureRoot(dataDir string) string { return filepath.Join(dataDir, "capture") }

func isHelpOrInit(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "init" || c.Name() == "version" {
			return true
		}
	}
	return false
}

// exitCodeFor maps an error to the CLI's documented exit-code convention:
// 0 handled at the call site on success, 1 for partial/recoverable
// failures, 2 for I/O or total failures.
func exitCodeFor(err error) int {
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return 2
}

// exitCoder lets a command report a specific exit code without resorting
// to os.Exit deep in its Run function, so deferred cleanup (store.Close)
// still runs via cobra's normal return path.
type exitCoder interface {
	error
	ExitCode() int
}

// cliError attaches an explicit exit code to an error message.
type cliError struct {
	msg  string
	code int
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) ExitCode() int { return e.code }

func newExitError(code int, format string, args ...interface{}) error {
	return &cliError{msg: fmt.Sprintf(format, args...), code: code}
}
