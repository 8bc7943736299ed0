package rfof

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Module names accepted in a board profile
const (
	ModuleFtx = "ftx"
	ModuleFrx = "frx"
)

// BoardConfig is a board profile: which board it is and where its peripherals sit on the bus.
type BoardConfig struct {
	Module      string            `yaml:"module"`
	Attenuator  AttenuatorConfig  `yaml:"attenuator"`
	Temperature TemperatureConfig `yaml:"temperature"`
	ADC         ADCConfig         `yaml:"adc"`
	Digipot     DigipotConfig     `yaml:"digipot"`
}

// AttenuatorConfig holds the attenuator bus expander settings
type AttenuatorConfig struct {
	AddressBit bool `yaml:"address_bit"`
}

// TemperatureConfig holds the temperature sensor settings
type TemperatureConfig struct {
	Address uint16 `yaml:"address"`
}

// ADCConfig holds the monitor ADC settings
type ADCConfig struct {
	Address         uint16 `yaml:"address"`
	RFAverages      int    `yaml:"rf_averages"`
	VoltageAverages int    `yaml:"voltage_averages"`
}

// DigipotConfig holds the laser current digipot settings (transmitter only)
type DigipotConfig struct {
	AD0 bool `yaml:"ad0"`
}

// DefaultBoardConfig is the transmitter as built: expander and digipot address pins tied
// to ground, sensor at 0x48, ADC at 0x10, 64 averages per reading.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Module:      ModuleFtx,
		Temperature: TemperatureConfig{Address: DefaultTemperatureAddress},
		ADC: ADCConfig{
			Address:         DefaultADCAddress,
			RFAverages:      64,
			VoltageAverages: 64,
		},
	}
}

// LoadBoardConfig reads a YAML board profile. Fields missing from the file keep their defaults.
func LoadBoardConfig(path string) (BoardConfig, error) {
	cfg := DefaultBoardConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, ConfigErrorF(err, "could not read board profile %v", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, ConfigErrorF(err, "could not parse board profile %v", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the profile describes a board the drivers can talk to
func (c BoardConfig) Validate() error {
	if c.Module != ModuleFtx && c.Module != ModuleFrx {
		return ConfigErrorF(nil, "invalid module %q, must be one of: %v, %v", c.Module, ModuleFtx, ModuleFrx)
	}
	if err := checkAddress("temperature", c.Temperature.Address); err != nil {
		return err
	}
	if err := checkAddress("adc", c.ADC.Address); err != nil {
		return err
	}
	if err := checkAverages("rf_averages", c.ADC.RFAverages); err != nil {
		return err
	}
	return checkAverages("voltage_averages", c.ADC.VoltageAverages)
}

func checkAddress(name string, addr uint16) error {
	if addr < 0x08 || addr > 0x77 {
		return ConfigErrorF(nil, "%v address 0x%02x is outside [0x08, 0x77]", name, addr)
	}
	return nil
}

func checkAverages(name string, n int) error {
	if n < 1 || n > MaxADCAverages {
		return ConfigErrorF(nil, "%v %d is outside [1, %d]", name, n, MaxADCAverages)
	}
	return nil
}

func (c BoardConfig) String() string {
	return fmt.Sprintf("%v (temperature 0x%02x, adc 0x%02x)", c.Module, c.Temperature.Address, c.ADC.Address)
}
