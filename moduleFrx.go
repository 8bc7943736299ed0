package rfof

import (
	"fmt"
	"log/slog"
)

// FRX ADC wiring
const (
	frxVref     = 5.0
	frxPDIShunt = 5.1
	frxGain     = 100.0

	frxChanRF  = 0
	frxChanPDI = 1
)

var frxPins = []PinConfig{
	{frxChanRF, PinAnalog},
	{frxChanPDI, PinAnalog},
}

// FrxMonitor is a snapshot of the receiver's analog monitors
type FrxMonitor struct {
	// RFPower at the power detector in dBm
	RFPower float64
	// PDCurrent is the photodiode DC current in mA
	PDCurrent float64
}

// Frx is the fiber receiver board. It has no laser and so no digipot.
type Frx struct {
	bus   Bus
	cfg   BoardConfig
	atten *Attenuator
	adc   *ADC
	temp  *TemperatureSensor
}

// NewFrx lays out the receiver's peripherals on bus. Nothing is sent until Init.
func NewFrx(bus Bus, cfg BoardConfig) *Frx {
	return &Frx{
		bus:   bus,
		cfg:   cfg,
		atten: NewAttenuator(bus, cfg.Attenuator.AddressBit),
		adc:   NewADC(bus, cfg.ADC.Address, frxVref),
		temp:  NewTemperatureSensor(bus, cfg.Temperature.Address),
	}
}

// OpenFrx opens the bus at device and initialises a receiver on it.
func OpenFrx(device string, cfg BoardConfig, logger *slog.Logger) (*Frx, error) {
	bus, err := openBus(device, ModuleFrx, cfg, logger)
	if err != nil {
		return nil, err
	}
	frx := NewFrx(bus, cfg)
	if err := frx.Init(); err != nil {
		bus.Close()
		return nil, err
	}
	return frx, nil
}

// Init initialises every peripheral
func (f *Frx) Init() error {
	if err := f.atten.Init(); err != nil {
		return ConstructionErrorF(err, "I2C error initializing Frx attenuator")
	}
	if err := f.adc.Init(frxPins); err != nil {
		return ConstructionErrorF(err, "I2C error initializing Frx ADC")
	}
	if err := f.temp.Init(); err != nil {
		return ConstructionErrorF(err, "I2C error initializing Frx temperature sensor")
	}
	return nil
}

// Bus is the bus the board was opened on
func (f *Frx) Bus() Bus {
	return f.bus
}

// Close closes the bus
func (f *Frx) Close() error {
	return f.bus.Close()
}

// SetAttenuation sets the step attenuator in dB (0 to 31.75, truncated to 0.25 dB steps)
func (f *Frx) SetAttenuation(db float64) error {
	return setAttenuation(f.atten, db)
}

// Attenuation reads the step attenuator state in dB
func (f *Frx) Attenuation() (float64, error) {
	return attenuation(f.atten)
}

// Temperature reads the board temperature in degrees C
func (f *Frx) Temperature() (float64, error) {
	t, err := f.temp.Temperature()
	return t, opError(KindGetTemperature, err)
}

// UID reads the board's unique ID
func (f *Frx) UID() (uint64, error) {
	uid, err := f.temp.UID()
	return uid, opError(KindGetUID, err)
}

// RFPower reads the RF power at the detector in dBm
func (f *Frx) RFPower() (float64, error) {
	raw, err := f.adc.ReadFraction(frxChanRF, f.cfg.ADC.RFAverages)
	if err != nil {
		return 0, opError(KindMonitor, err)
	}
	return rfPower(raw), nil
}

// PDCurrent reads the photodiode DC current in mA
func (f *Frx) PDCurrent() (float64, error) {
	i, err := f.adc.ReadCurrent(frxChanPDI, frxPDIShunt, frxGain, f.cfg.ADC.VoltageAverages)
	return i * 1000, opError(KindMonitor, err)
}

// Monitor reads both analog monitors
func (f *Frx) Monitor() (FrxMonitor, error) {
	m := FrxMonitor{}
	var err error
	if m.RFPower, err = f.RFPower(); err != nil {
		return m, fmt.Errorf("rf power: %w", err)
	}
	if m.PDCurrent, err = f.PDCurrent(); err != nil {
		return m, fmt.Errorf("pd current: %w", err)
	}
	return m, nil
}
