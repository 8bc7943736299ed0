package rfof

// Reduced driver for the TLA2528 8 channel 12-bit ADC.

const (
	tla2528OpSingleWrite = 0b0000_1000
	tla2528OpSetBit      = 0b0001_1000
	tla2528OpClearBit    = 0b0010_0000

	tla2528RegSystemStatus = 0x00
	tla2528RegGeneralCfg   = 0x01
	tla2528RegPinCfg       = 0x05
	tla2528RegGpioCfg      = 0x07
	tla2528RegGpoDriveCfg  = 0x09
	tla2528RegGpoValue     = 0x0b
	tla2528RegChannelSel   = 0x11

	// DefaultADCAddress is the hard-wired ADC address on both boards
	DefaultADCAddress = 0x10

	// MaxADCAverages caps the samples read in one conversion burst
	MaxADCAverages = 256

	adcFullScale = 4095.0
)

// PinMode selects how an ADC pin is used
type PinMode int

const (
	// PinAnalog is an analog input
	PinAnalog PinMode = iota
	// PinDigitalOut is a push-pull digital output
	PinDigitalOut
)

// PinConfig is the mode of one ADC channel
type PinConfig struct {
	Channel uint8
	Mode    PinMode
}

type tla2528 struct {
	device
}

func (a *tla2528) writeReg(reg byte, value byte) error {
	return a.write(tla2528OpSingleWrite, reg, value)
}

func (a *tla2528) setBit(reg byte, pos uint8) error {
	return a.write(tla2528OpSetBit, reg, 1<<pos)
}

func (a *tla2528) clearBit(reg byte, pos uint8) error {
	return a.write(tla2528OpClearBit, reg, 1<<pos)
}

// readAndAverage reads n conversions (at most MaxADCAverages) and averages them.
func (a *tla2528) readAndAverage(n int) (uint16, error) {
	if n < 1 {
		n = 1
	}
	if n > MaxADCAverages {
		n = MaxADCAverages
	}
	raw := make([]byte, n*2)
	if err := a.read(raw); err != nil {
		return 0, err
	}
	samples := make([]uint16, n)
	for i := range samples {
		// 12-bit result, left justified
		samples[i] = getWord(raw, i*2) >> 4
	}
	return integerAverage(samples), nil
}

func (a *tla2528) reset() error {
	return a.setBit(tla2528RegGeneralCfg, 0)
}

func (a *tla2528) calibrate() error {
	return a.setBit(tla2528RegSystemStatus, 0)
}

func (a *tla2528) setPinMode(mode PinMode, channel uint8) error {
	switch mode {
	case PinDigitalOut:
		if err := a.setBit(tla2528RegPinCfg, channel); err != nil {
			return err
		}
		if err := a.setBit(tla2528RegGpioCfg, channel); err != nil {
			return err
		}
		return a.setBit(tla2528RegGpoDriveCfg, channel)
	default:
		return a.clearBit(tla2528RegPinCfg, channel)
	}
}

// readChannel reads from a channel configured as analog. Other channels return garbage.
func (a *tla2528) readChannel(channel uint8, averages int) (uint16, error) {
	if err := a.writeReg(tla2528RegChannelSel, channel); err != nil {
		return 0, err
	}
	return a.readAndAverage(averages)
}

func (a *tla2528) digitalWrite(channel uint8, set bool) error {
	if set {
		return a.setBit(tla2528RegGpoValue, channel)
	}
	return a.clearBit(tla2528RegGpoValue, channel)
}

// ADC is the monitor ADC with a reference voltage, shared by both board drivers.
type ADC struct {
	adc  *tla2528
	vref float64
}

// NewADC addresses an ADC at addr with an analog reference of vref volts
func NewADC(bus Bus, addr uint16, vref float64) *ADC {
	return &ADC{&tla2528{device{bus, addr}}, vref}
}

// Init resets and calibrates the ADC then applies the pin configuration
func (a *ADC) Init(pins []PinConfig) error {
	if err := a.adc.reset(); err != nil {
		return err
	}
	if err := a.adc.calibrate(); err != nil {
		return err
	}
	for _, pin := range pins {
		if err := a.adc.setPinMode(pin.Mode, pin.Channel); err != nil {
			return err
		}
	}
	return nil
}

// ReadFraction reads a channel as a fraction of full scale (0 to 1)
func (a *ADC) ReadFraction(channel uint8, averages int) (float64, error) {
	raw, err := a.adc.readChannel(channel, averages)
	if err != nil {
		return 0, err
	}
	return float64(raw) / adcFullScale, nil
}

// ReadCurrent reads a current-sense channel in amps, given the shunt resistor and the
// current-amplifier gain
func (a *ADC) ReadCurrent(channel uint8, shunt, gain float64, averages int) (float64, error) {
	raw, err := a.ReadFraction(channel, averages)
	if err != nil {
		return 0, err
	}
	return raw * a.vref / (gain * shunt), nil
}

// ReadVoltage reads a voltage channel in volts, given the gain of its amplifier or divider
func (a *ADC) ReadVoltage(channel uint8, gain float64, averages int) (float64, error) {
	raw, err := a.ReadFraction(channel, averages)
	if err != nil {
		return 0, err
	}
	return raw * a.vref / gain, nil
}

// DigitalWrite drives a channel configured as a digital output
func (a *ADC) DigitalWrite(channel uint8, set bool) error {
	return a.adc.digitalWrite(channel, set)
}
