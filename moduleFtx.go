package rfof

import (
	"fmt"
	"log/slog"
)

// FTX ADC wiring
const (
	ftxVref = 5.0

	ftxLDIShunt  = 1.0
	ftxPDIShunt  = 100.0
	ftxLNAIShunt = 0.5

	ftxLDIGain  = 100.0
	ftxPDIGain  = 100.0
	ftxLNAIGain = 100.0

	ftxVDDAGain = 0.5
	ftxVLNAGain = 0.25
	ftxVDDGain  = 0.5

	ftxChanVDDA  = 0
	ftxChanPDI   = 1
	ftxChanRF    = 2
	ftxChanLNAI  = 3
	ftxChanLDI   = 4
	ftxChanVLNA  = 5
	ftxChanLNAEn = 6
	ftxChanVDD   = 7
)

var ftxPins = []PinConfig{
	{ftxChanVDDA, PinAnalog},
	{ftxChanPDI, PinAnalog},
	{ftxChanRF, PinAnalog},
	{ftxChanLNAI, PinAnalog},
	{ftxChanLDI, PinAnalog},
	{ftxChanVLNA, PinAnalog},
	{ftxChanLNAEn, PinDigitalOut},
	{ftxChanVDD, PinAnalog},
}

// rfPower converts a detector reading (fraction of full scale) to dBm
func rfPower(raw float64) float64 {
	return 17.74*(raw*5.0) - 55.0
}

// FtxMonitor is a snapshot of every analog monitor on the transmitter
type FtxMonitor struct {
	// RFPower at the power detector in dBm
	RFPower float64
	// PDCurrent is the monitor photodiode current in uA
	PDCurrent float64
	// LDCurrent is the laser current in mA
	LDCurrent float64
	// LDSetpoint is the laser current setpoint in mA
	LDSetpoint float64
	// LNACurrent in mA
	LNACurrent float64
	// LNAVoltage in V
	LNAVoltage float64
	// AnalogVoltage is the VDDA supply in V
	AnalogVoltage float64
	// DigitalVoltage is the VDD supply in V
	DigitalVoltage float64
}

// Ftx is the fiber transmitter board.
type Ftx struct {
	bus     Bus
	cfg     BoardConfig
	atten   *Attenuator
	adc     *ADC
	temp    *TemperatureSensor
	digipot *Digipot
}

// NewFtx lays out the transmitter's peripherals on bus. Nothing is sent until Init.
func NewFtx(bus Bus, cfg BoardConfig) *Ftx {
	return &Ftx{
		bus:     bus,
		cfg:     cfg,
		atten:   NewAttenuator(bus, cfg.Attenuator.AddressBit),
		adc:     NewADC(bus, cfg.ADC.Address, ftxVref),
		temp:    NewTemperatureSensor(bus, cfg.Temperature.Address),
		digipot: NewDigipot(bus, cfg.Digipot.AD0),
	}
}

// OpenFtx opens the bus at device and initialises a transmitter on it. Any failure is a
// KindConstruction error and leaves nothing open.
func OpenFtx(device string, cfg BoardConfig, logger *slog.Logger) (*Ftx, error) {
	bus, err := openBus(device, ModuleFtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	ftx := NewFtx(bus, cfg)
	if err := ftx.Init(); err != nil {
		bus.Close()
		return nil, err
	}
	return ftx, nil
}

// openBus opens device as the bus for a board of the given module: an i2c-dev node, or a
// SimBoard when device is "sim", "sim:ftx" or "sim:frx".
func openBus(device string, module string, cfg BoardConfig, logger *slog.Logger) (*InstrumentedBus, error) {
	sim, err := simDevice(device, module)
	if err != nil {
		return nil, err
	}
	if sim {
		cfg.Module = module
		ib := Instrument(NewSimBoard(cfg), logger)
		ib.logger.Debug("opened simulated board", "module", module)
		return ib, nil
	}
	dev, err := NewI2CDev(device)
	if err != nil {
		return nil, err
	}
	ib := Instrument(dev, logger)
	ib.logger.Debug("opened i2c bus", "device", device)
	return ib, nil
}

// Init initialises every peripheral. The digipot needs no setup.
func (f *Ftx) Init() error {
	if err := f.atten.Init(); err != nil {
		return ConstructionErrorF(err, "I2C error initializing Ftx attenuator")
	}
	if err := f.adc.Init(ftxPins); err != nil {
		return ConstructionErrorF(err, "I2C error initializing Ftx ADC")
	}
	if err := f.temp.Init(); err != nil {
		return ConstructionErrorF(err, "I2C error initializing Ftx temperature sensor")
	}
	return nil
}

// Bus is the bus the board was opened on
func (f *Ftx) Bus() Bus {
	return f.bus
}

// Close closes the bus
func (f *Ftx) Close() error {
	return f.bus.Close()
}

// SetAttenuation sets the step attenuator in dB (0 to 31.75, truncated to 0.25 dB steps)
func (f *Ftx) SetAttenuation(db float64) error {
	return setAttenuation(f.atten, db)
}

// Attenuation reads the step attenuator state in dB
func (f *Ftx) Attenuation() (float64, error) {
	return attenuation(f.atten)
}

// Temperature reads the board temperature in degrees C
func (f *Ftx) Temperature() (float64, error) {
	t, err := f.temp.Temperature()
	return t, opError(KindGetTemperature, err)
}

// UID reads the board's unique ID
func (f *Ftx) UID() (uint64, error) {
	uid, err := f.temp.UID()
	return uid, opError(KindGetUID, err)
}

// RFPower reads the RF power at the detector in dBm
func (f *Ftx) RFPower() (float64, error) {
	raw, err := f.adc.ReadFraction(ftxChanRF, f.cfg.ADC.RFAverages)
	if err != nil {
		return 0, opError(KindMonitor, err)
	}
	return rfPower(raw), nil
}

// PDCurrent reads the DC monitor photodiode current in uA
func (f *Ftx) PDCurrent() (float64, error) {
	i, err := f.adc.ReadCurrent(ftxChanPDI, ftxPDIShunt, ftxPDIGain, f.cfg.ADC.VoltageAverages)
	return i * 1e6, opError(KindMonitor, err)
}

// LDCurrent reads the laser current in mA
func (f *Ftx) LDCurrent() (float64, error) {
	i, err := f.adc.ReadCurrent(ftxChanLDI, ftxLDIShunt, ftxLDIGain, f.cfg.ADC.VoltageAverages)
	return i * 1000, opError(KindMonitor, err)
}

// LNACurrent reads the LNA current in mA
func (f *Ftx) LNACurrent() (float64, error) {
	i, err := f.adc.ReadCurrent(ftxChanLNAI, ftxLNAIShunt, ftxLNAIGain, f.cfg.ADC.VoltageAverages)
	return i * 1000, opError(KindMonitor, err)
}

// LNAVoltage reads the LNA supply in V
func (f *Ftx) LNAVoltage() (float64, error) {
	v, err := f.adc.ReadVoltage(ftxChanVLNA, ftxVLNAGain, f.cfg.ADC.VoltageAverages)
	return v, opError(KindMonitor, err)
}

// AnalogVoltage reads the analog supply (VDDA) in V
func (f *Ftx) AnalogVoltage() (float64, error) {
	v, err := f.adc.ReadVoltage(ftxChanVDDA, ftxVDDAGain, f.cfg.ADC.VoltageAverages)
	return v, opError(KindMonitor, err)
}

// DigitalVoltage reads the digital supply (VDD) in V
func (f *Ftx) DigitalVoltage() (float64, error) {
	v, err := f.adc.ReadVoltage(ftxChanVDD, ftxVDDGain, f.cfg.ADC.VoltageAverages)
	return v, opError(KindMonitor, err)
}

// SetLNAEnabled switches the load switch for the LNA bias
func (f *Ftx) SetLNAEnabled(enable bool) error {
	return opError(KindSetLNA, f.adc.DigitalWrite(ftxChanLNAEn, enable))
}

// SetLaserCurrent sets the laser current source in mA (0 to 50)
func (f *Ftx) SetLaserCurrent(current float64) error {
	if !inRange(current, 0, MaxLaserCurrent) {
		return kindErrorF(KindSetLaserCurrent, ErrOutOfRange, "laser current %v mA out of bounds (0 - %v)", current, MaxLaserCurrent)
	}
	return opError(KindSetLaserCurrent, f.digipot.Set(current))
}

// LaserCurrent reads the laser current setpoint in mA
func (f *Ftx) LaserCurrent() (float64, error) {
	i, err := f.digipot.Get()
	return i, opError(KindMonitor, err)
}

// Monitor reads every analog monitor, stopping at the first failure
func (f *Ftx) Monitor() (FtxMonitor, error) {
	m := FtxMonitor{}
	reads := []struct {
		name string
		dst  *float64
		fn   func() (float64, error)
	}{
		{"rf power", &m.RFPower, f.RFPower},
		{"pd current", &m.PDCurrent, f.PDCurrent},
		{"ld current", &m.LDCurrent, f.LDCurrent},
		{"ld setpoint", &m.LDSetpoint, f.LaserCurrent},
		{"lna current", &m.LNACurrent, f.LNACurrent},
		{"lna voltage", &m.LNAVoltage, f.LNAVoltage},
		{"vdda", &m.AnalogVoltage, f.AnalogVoltage},
		{"vdd", &m.DigitalVoltage, f.DigitalVoltage},
	}
	for _, r := range reads {
		v, err := r.fn()
		if err != nil {
			return m, fmt.Errorf("%v: %w", r.name, err)
		}
		*r.dst = v
	}
	return m, nil
}

func setAttenuation(a *Attenuator, db float64) error {
	atten, err := AttenuationFromDB(db)
	if err != nil {
		return kindErrorF(KindSetAttenuation, ErrOutOfRange, "attenuation %v dB out of bounds (0 - %v)", db, MaxAttenuation)
	}
	return opError(KindSetAttenuation, a.Set(atten))
}

func attenuation(a *Attenuator) (float64, error) {
	atten, err := a.Get()
	if err != nil {
		return 0, opError(KindGetAttenuation, err)
	}
	return atten.DB(), nil
}
