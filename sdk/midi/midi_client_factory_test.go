package midi

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/airpiano/internal/logger"
	"github.com/leandrodaf/airpiano/sdk/contracts"
)

func TestNewClientRejectsUnknownOS(t *testing.T) {
	opts := ApplyDefaultOptions(contracts.WithLogger(logger.NewNop()))
	_, err := newClientFor("plan9", &opts)
	assert.ErrorIs(t, err, ErrUnsupportedOS)
	assert.Contains(t, err.Error(), "plan9")
}

func TestEverySupportedOSHasInitializer(t *testing.T) {
	for _, goos := range []string{"darwin", "windows", "linux"} {
		assert.Contains(t, clientInitializers, goos)
	}
}

func TestApplyDefaultOptions(t *testing.T) {
	opts := ApplyDefaultOptions()
	require.NotNil(t, opts.Logger)
	require.NotNil(t, opts.CoreMIDIConfig)
	assert.Equal(t, DefaultClientName, opts.CoreMIDIConfig.ClientName)
	require.NotNil(t, opts.Output)
	assert.Equal(t, uint8(127), opts.Output.Velocity)
	assert.Equal(t, uint8(0), opts.Output.Channel)
}

func TestApplyDefaultOptionsKeepsExplicitValues(t *testing.T) {
	l := logger.NewNop()
	opts := ApplyDefaultOptions(
		contracts.WithLogger(l),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "stage"}),
		contracts.WithOutputConfig(contracts.OutputConfig{Channel: 3, Velocity: 90}),
	)
	assert.Same(t, l, opts.Logger)
	assert.Equal(t, "stage", opts.CoreMIDIConfig.ClientName)
	assert.Equal(t, uint8(3), opts.Output.Channel)
	assert.Equal(t, uint8(90), opts.Output.Velocity)
}

func TestForeignBackendsHaveNoOutputs(t *testing.T) {
	for _, goos := range []string{"darwin", "windows"} {
		if goos == runtime.GOOS {
			continue
		}
		opts := ApplyDefaultOptions(contracts.WithLogger(logger.NewNop()))
		client, err := newClientFor(goos, &opts)
		require.NoError(t, err, goos)

		devices, err := client.ListDevices()
		assert.Error(t, err, goos)
		assert.Empty(t, devices)
		assert.Error(t, client.Send([]byte{0x90, 60, 127}))
		assert.NoError(t, client.Stop())
	}
}
