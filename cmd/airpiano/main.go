package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/airpiano/internal/config"
	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "airpiano",
	Short: "Play chords with your fingers in the air",
	Long: `airpiano reads hand landmarks (one JSON object per line, as produced by a
hand tracking process) and plays a chord for every raised finger. Lowering a
finger lets the chord ring for the sustain time before it is released.

Output goes to the first MIDI device found, or to short synthesized tones when
no MIDI output is available.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "airpiano.yaml", "path to the YAML configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd, devicesCmd, chordsCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// newLogger builds the CLI logger from the logging section and --verbose.
func newLogger(cfg *config.Config) contracts.Logger {
	log := logger.NewZapLogger()
	level, _ := contracts.ParseLogLevel(cfg.Logging.Level)
	if verbose {
		level = contracts.DebugLevel
	}
	log.SetLevel(level)
	if cfg.Logging.File != "" {
		log.SetDestination(contracts.FileLog, cfg.Logging.File)
	}
	return log
}
