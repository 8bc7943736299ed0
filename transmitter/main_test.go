package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/eigsep/rfof"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	diag rfof.BusDiagnostics
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error { return nil }
func (b *fakeBus) Close() error                      { return nil }
func (b *fakeBus) Diagnostics() rfof.BusDiagnostics  { return b.diag }

type fakeTransmitter struct {
	calls []string

	temp    float64
	atten   float64
	uid     uint64
	monitor rfof.FtxMonitor
	bus     rfof.Bus

	setAttenErr   error
	attenErr      error
	tempErr       error
	lnaErr        error
	laserErr      error
	uidErr        error
	monitorErr    error
	closed        bool
	lastAtten     float64
	lastLaser     float64
	lastLNAEnable bool
}

func (f *fakeTransmitter) SetAttenuation(db float64) error {
	f.calls = append(f.calls, "SetAttenuation")
	f.lastAtten = db
	return f.setAttenErr
}

func (f *fakeTransmitter) Attenuation() (float64, error) {
	f.calls = append(f.calls, "Attenuation")
	return f.atten, f.attenErr
}

func (f *fakeTransmitter) Temperature() (float64, error) {
	f.calls = append(f.calls, "Temperature")
	return f.temp, f.tempErr
}

func (f *fakeTransmitter) SetLNAEnabled(enable bool) error {
	f.calls = append(f.calls, "SetLNAEnabled")
	f.lastLNAEnable = enable
	return f.lnaErr
}

func (f *fakeTransmitter) SetLaserCurrent(current float64) error {
	f.calls = append(f.calls, "SetLaserCurrent")
	f.lastLaser = current
	return f.laserErr
}

func (f *fakeTransmitter) UID() (uint64, error) {
	f.calls = append(f.calls, "UID")
	return f.uid, f.uidErr
}

func (f *fakeTransmitter) Monitor() (rfof.FtxMonitor, error) {
	f.calls = append(f.calls, "Monitor")
	return f.monitor, f.monitorErr
}

func (f *fakeTransmitter) Bus() rfof.Bus {
	return f.bus
}

func (f *fakeTransmitter) Close() error {
	f.closed = true
	return nil
}

// harness runs the command against fake, recording what the opener was given
type harness struct {
	fake    *fakeTransmitter
	openErr error
	opened  bool
	device  string
	cfg     rfof.BoardConfig
}

func (h *harness) open(device string, cfg rfof.BoardConfig, logger *slog.Logger) (transmitter, error) {
	h.opened = true
	h.device = device
	h.cfg = cfg
	if h.openErr != nil {
		return nil, h.openErr
	}
	return h.fake, nil
}

func (h *harness) run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, h.open)
	return code, stdout.String()
}

// clearEnv makes sure the environment does not leak into flag defaults
func clearEnv(t *testing.T) {
	for _, name := range []string{"RFOF_DEVICE", "RFOF_CONFIG"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestSetAttenuationAndReadTemperature(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{temp: 22.0}}
	code, out := h.run(t, "--device", "/dev/i2c-1", "--atten", "15.0", "--read_temp")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Successfully set attenuation to 15.0 dB\nTransmitter Temp: 22.00 C˚\n", out)
	assert.Equal(t, "/dev/i2c-1", h.device)
	assert.Equal(t, 15.0, h.fake.lastAtten)
	assert.Equal(t, []string{"SetAttenuation", "Temperature"}, h.fake.calls)
	assert.True(t, h.fake.closed)
}

func TestNoActions(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{}}
	code, out := h.run(t)

	assert.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.True(t, h.opened)
	assert.Equal(t, "/dev/i2c-1", h.device)
	assert.Equal(t, rfof.DefaultBoardConfig(), h.cfg)
	assert.Empty(t, h.fake.calls)
}

func TestDeviceFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("RFOF_DEVICE", "/dev/i2c-7")
	h := &harness{fake: &fakeTransmitter{}}
	code, _ := h.run(t)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/dev/i2c-7", h.device)

	code, _ = h.run(t, "--device", "/dev/i2c-3")
	assert.Equal(t, 0, code)
	assert.Equal(t, "/dev/i2c-3", h.device)
}

func TestInitializeFailure(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{}, openErr: errors.New("no such device")}
	code, out := h.run(t, "--atten", "3", "--read_temp")

	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to initialize transmitter: no such device\n", out)
	assert.Empty(t, h.fake.calls)
}

func TestSetAttenuationFailureStops(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{setAttenErr: errors.New("I2C error")}}
	code, out := h.run(t, "--atten", "40", "--read_temp", "--read_atten")

	assert.Equal(t, 1, code)
	assert.Equal(t, "Error setting attenuation: I2C error\n", out)
	assert.Equal(t, []string{"SetAttenuation"}, h.fake.calls)
	assert.True(t, h.fake.closed)
}

func TestNegativeAttenuationReachesDriver(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{}}
	code, out := h.run(t, "--atten=-1")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Successfully set attenuation to -1.0 dB\n", out)
	assert.Equal(t, -1.0, h.fake.lastAtten)
}

func TestReadTemperatureFailure(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{tempErr: errors.New("sensor gone")}}
	code, out := h.run(t, "--read_temp", "--read_atten")

	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to read temperature: sensor gone\n", out)
	assert.Equal(t, []string{"Temperature"}, h.fake.calls)
}

func TestReadAttenuation(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{atten: 15.25}}
	code, out := h.run(t, "--read_atten")
	assert.Equal(t, 0, code)
	assert.Equal(t, "attenuation: 15.25 dB.\n", out)

	h = &harness{fake: &fakeTransmitter{attenErr: errors.New("nak")}}
	code, out = h.run(t, "--read_atten")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to read Ftx attenuation. nak\n", out)
}

func TestFixedOrder(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{bus: &fakeBus{}}}
	code, _ := h.run(t, "--diag", "--monitor", "--read_uid", "--ld_current", "20", "--lna", "on",
		"--read_atten", "--read_temp", "--atten", "1")

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{
		"SetAttenuation", "Temperature", "Attenuation", "SetLNAEnabled", "SetLaserCurrent", "UID", "Monitor",
	}, h.fake.calls)
}

func TestLNA(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{}}
	code, out := h.run(t, "--lna", "on")
	assert.Equal(t, 0, code)
	assert.Equal(t, "LNA bias enabled\n", out)
	assert.True(t, h.fake.lastLNAEnable)

	h = &harness{fake: &fakeTransmitter{}}
	code, out = h.run(t, "--lna", "off")
	assert.Equal(t, 0, code)
	assert.Equal(t, "LNA bias disabled\n", out)
	assert.False(t, h.fake.lastLNAEnable)

	h = &harness{fake: &fakeTransmitter{lnaErr: errors.New("nak")}}
	code, out = h.run(t, "--lna", "on")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error setting LNA bias: nak\n", out)

	h = &harness{fake: &fakeTransmitter{}}
	code, _ = h.run(t, "--lna", "maybe")
	assert.Equal(t, 1, code)
	assert.False(t, h.opened)
}

func TestLaserCurrent(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{}}
	code, out := h.run(t, "--ld_current", "25")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Successfully set laser current to 25.0 mA\n", out)
	assert.Equal(t, 25.0, h.fake.lastLaser)

	h = &harness{fake: &fakeTransmitter{laserErr: errors.New("out of range")}}
	code, out = h.run(t, "--ld_current", "60")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error setting laser current: out of range\n", out)
}

func TestReadUID(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{uid: 0xabcdef}}
	code, out := h.run(t, "--read_uid")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Unique ID: 0x000000abcdef\n", out)

	h = &harness{fake: &fakeTransmitter{uidErr: errors.New("nak")}}
	code, out = h.run(t, "--read_uid")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to read unique ID: nak\n", out)
}

func TestMonitor(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{monitor: rfof.FtxMonitor{
		RFPower:        -12.345,
		PDCurrent:      150,
		LDCurrent:      30.5,
		LDSetpoint:     30.392,
		LNACurrent:     60,
		LNAVoltage:     5,
		AnalogVoltage:  3.3,
		DigitalVoltage: 3.301,
	}}}
	code, out := h.run(t, "--monitor")
	assert.Equal(t, 0, code)
	assert.Equal(t, "RF power: -12.35 dBm\n"+
		"PD current: 150.00 uA\n"+
		"LD current: 30.50 mA\n"+
		"LD setpoint: 30.39 mA\n"+
		"LNA current: 60.00 mA\n"+
		"LNA voltage: 5.00 V\n"+
		"VDDA: 3.30 V\n"+
		"VDD: 3.30 V\n", out)

	h = &harness{fake: &fakeTransmitter{monitorErr: errors.New("rf power: nak")}}
	code, out = h.run(t, "--monitor")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to read monitor values: rf power: nak\n", out)
}

func TestDiagnostics(t *testing.T) {
	clearEnv(t)
	bus := &fakeBus{diag: rfof.BusDiagnostics{Transactions: 9, Writes: 7, Reads: 3, Errors: 1, BytesOut: 12, BytesIn: 6}}
	h := &harness{fake: &fakeTransmitter{bus: bus}}
	code, out := h.run(t, "--diag")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Bus transactions: 9\nBus writes: 7\nBus reads: 3\nBus errors: 1\nBus bytes out: 12\nBus bytes in: 6\n", out)

	h = &harness{fake: &fakeTransmitter{}}
	code, out = h.run(t, "--diag")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Bus diagnostics: unavailable\n", out)
}

func TestHelpAndBadFlags(t *testing.T) {
	clearEnv(t)
	h := &harness{fake: &fakeTransmitter{}}
	code, out := h.run(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "--read_temp")
	assert.False(t, h.opened)

	code, _ = h.run(t, "--bogus")
	assert.Equal(t, 1, code)

	code, _ = h.run(t, "--atten", "loud")
	assert.Equal(t, 1, code)

	code, out = h.run(t, "extra")
	assert.Equal(t, 1, code)
	assert.Equal(t, "unexpected arguments: extra\n", out)
	assert.False(t, h.opened)
}

func TestConfigProfile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: { address: 0x49 }\n"), 0o600))

	h := &harness{fake: &fakeTransmitter{}}
	code, _ := h.run(t, "--config", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, uint16(0x49), h.cfg.Temperature.Address)

	require.NoError(t, os.WriteFile(path, []byte("module: nope\n"), 0o600))
	h = &harness{fake: &fakeTransmitter{}}
	code, out := h.run(t, "--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Failed to initialize transmitter: invalid module")
	assert.False(t, h.opened)
}

func TestSimulatedBoard(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--device", "sim", "--atten", "15.3", "--read_temp", "--read_atten", "--read_uid", "--lna", "on"},
		&stdout, &stderr, openFtx)

	assert.Equal(t, 0, code)
	assert.Equal(t, "Successfully set attenuation to 15.3 dB\n"+
		"Transmitter Temp: 22.00 C˚\n"+
		"attenuation: 15.25 dB.\n"+
		"LNA bias enabled\n"+
		"Unique ID: 0x123456789abc\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestSimulatedBoardVerbose(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--device", "sim", "--verbose", "--read_temp"}, &stdout, &stderr, openFtx)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "i2c transaction")
}

func TestSimulatedBoardOutOfRange(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--device", "sim", "--atten", "40"}, &stdout, &stderr, openFtx)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error setting attenuation: attenuation 40 dB out of bounds (0 - 31.75): out of range\n", stdout.String())
}

func TestWrongSimulatedBoard(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"--device", "sim:frx", "--read_temp"}, &stdout, &stderr, openFtx)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Failed to initialize transmitter: simulated frx board cannot be opened as ftx\n", stdout.String())
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{15, "15.0"},
		{15.25, "15.25"},
		{0, "0.0"},
		{-1, "-1.0"},
		{0.1, "0.1"},
		{31.75, "31.75"},
		{math.NaN(), "nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.v), func(t *testing.T) {
			assert.Equal(t, tt.want, formatFloat(tt.v))
		})
	}
}
