package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/leandrodaf/airpiano/internal/playback"
	"github.com/leandrodaf/airpiano/sdk/contracts"
	"github.com/leandrodaf/airpiano/sdk/midi"
)

// devicesCmd lists MIDI outputs
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List MIDI output devices",
	Long: `Lists the MIDI outputs of this machine. The device marked with * is the one
"run" would pick with the current configuration.`,
	Args: cobra.NoArgs,
	RunE: listDevices,
}

func listDevices(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := midi.NewMIDIClient(
		contracts.WithLogger(newLogger(cfg)),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: cfg.Output.ClientName}),
	)
	if err != nil {
		return fmt.Errorf("failed to open MIDI: %w", err)
	}
	defer func() { err = multierr.Append(err, client.Stop()) }()

	devices, err := client.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list MIDI outputs: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(out, "no MIDI outputs; run will use fallback tones")
		return nil
	}

	chosen := playback.PickDevice(devices, cfg.Output.Device)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tMANUFACTURER")
	for _, d := range devices {
		mark := ""
		if d.ID == chosen.ID {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", mark, d.ID, d.Name, d.Manufacturer)
	}
	return w.Flush()
}
