package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskhand/deskhand/pkg/config"
	"github.com/deskhand/deskhand/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deskhand",
	Short: "Deskhand - split-zone human-in-the-loop task pipeline",
	Long: `Deskhand watches external sources (mail, dropped files), drafts an
action plan for every item with an external assistant, and routes the
plans through human approval, execution, and rejection learning over a
shared vault directory. A cloud zone drafts; a local zone approves and
executes; the two meet only through the vault.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Deskhand version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(briefingCmd)
	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(syncCmd)
}

// loadConfig reads the effective configuration and initializes logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	return cfg, nil
}
