package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/airpiano/internal/chord"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

// chordsCmd prints the chord table
var chordsCmd = &cobra.Command{
	Use:   "chords",
	Short: "Show which chord each finger plays",
	Args:  cobra.NoArgs,
	RunE:  printChords,
}

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		abs, _ := filepath.Abs(path)
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", abs)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

func printChords(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	var o contracts.ClientOptions
	for _, opt := range opts {
		opt(&o)
	}
	registry, err := chord.NewRegistry(chord.Merge(o.Chords))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tCHORD\tNOTES\tTONE (Hz)")
	for _, slot := range contracts.AllSlots() {
		def := registry.Lookup(slot)
		fmt.Fprintf(w, "%s\t%s\t%v\t%g\n", slot, def.Name, def.Notes, o.Tone.Frequencies[slot.Finger])
	}
	fmt.Fprintf(w, "\nsustain %s\n", o.SustainTime)
	return w.Flush()
}
