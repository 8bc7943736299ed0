package rfof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultBoardConfig(t *testing.T) {
	cfg := DefaultBoardConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ModuleFtx, cfg.Module)
	assert.Equal(t, uint16(0x48), cfg.Temperature.Address)
	assert.Equal(t, uint16(0x10), cfg.ADC.Address)
	assert.Equal(t, "ftx (temperature 0x48, adc 0x10)", cfg.String())
}

func TestLoadBoardConfig(t *testing.T) {
	path := writeProfile(t, `
module: frx
attenuator: { address_bit: true }
temperature: { address: 0x49 }
adc: { address: 0x11, rf_averages: 16, voltage_averages: 256 }
`)
	cfg, err := LoadBoardConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModuleFrx, cfg.Module)
	assert.True(t, cfg.Attenuator.AddressBit)
	assert.Equal(t, uint16(0x49), cfg.Temperature.Address)
	assert.Equal(t, uint16(0x11), cfg.ADC.Address)
	assert.Equal(t, 16, cfg.ADC.RFAverages)
	assert.Equal(t, 256, cfg.ADC.VoltageAverages)
	assert.False(t, cfg.Digipot.AD0)
}

func TestLoadBoardConfigKeepsDefaults(t *testing.T) {
	cfg, err := LoadBoardConfig(writeProfile(t, "digipot: { ad0: true }\n"))
	require.NoError(t, err)
	want := DefaultBoardConfig()
	want.Digipot.AD0 = true
	assert.Equal(t, want, cfg)
}

func TestLoadBoardConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad module", "module: rx\n"},
		{"low address", "temperature: { address: 0x03 }\n"},
		{"high address", "adc: { address: 0x78 }\n"},
		{"zero averages", "adc: { rf_averages: 0 }\n"},
		{"too many averages", "adc: { voltage_averages: 257 }\n"},
		{"not yaml", "module: [ftx\n"},
		{"wrong type", "temperature: { address: hot }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBoardConfig(writeProfile(t, tt.content))
			require.Error(t, err)
			assert.True(t, IsKind(err, KindConfig), err.Error())
		})
	}
}

func TestLoadBoardConfigMissingFile(t *testing.T) {
	_, err := LoadBoardConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, IsKind(err, KindConfig))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
