package rfof

// Minimal driver for the TMP117 temperature sensor. The sensor also holds the board's unique ID.
//
// The data ready flag of the TMP117 is unreliable (reading the configuration register can clear
// it), so the sensor is left free running and the latest result is read directly.

const (
	tmp117RegTemperature   = 0x00
	tmp117RegConfiguration = 0x01
	tmp117RegEEPROM1       = 0x05
	tmp117RegEEPROM2       = 0x06
	tmp117RegEEPROM3       = 0x08

	// degrees C per LSB of the temperature register
	tmp117Scale = 7.8125e-3

	// DefaultTemperatureAddress is where the sensor sits on both boards
	DefaultTemperatureAddress = 0x48
)

// ConversionMode is the MOD field of the TMP117 configuration register
type ConversionMode uint8

const (
	ConversionContinuous ConversionMode = 0b00
	ConversionShutdown   ConversionMode = 0b01
	ConversionOneShot    ConversionMode = 0b11
)

// AveragingMode is the AVG field of the TMP117 configuration register
type AveragingMode uint8

const (
	AveragingNone AveragingMode = 0b00
	Averaging8    AveragingMode = 0b01
	Averaging32   AveragingMode = 0b10
	Averaging64   AveragingMode = 0b11
)

// tmp117Config is the configuration register unpacked into its fields.
type tmp117Config struct {
	highAlert  bool
	lowAlert   bool
	dataReady  bool
	eepromBusy bool
	mode       ConversionMode
	conv       uint8
	avg        AveragingMode
	tnA        bool
	pol        bool
	drAlert    bool
	softReset  bool
}

// defaultTmp117Config matches the power-on state of the fields we write
func defaultTmp117Config() tmp117Config {
	return tmp117Config{mode: ConversionContinuous, avg: Averaging8}
}

func bit(set bool, pos uint) uint16 {
	if set {
		return 1 << pos
	}
	return 0
}

func (c tmp117Config) pack() uint16 {
	word := bit(c.highAlert, 15) | bit(c.lowAlert, 14) | bit(c.dataReady, 13) | bit(c.eepromBusy, 12)
	word |= uint16(c.mode&0b11) << 10
	word |= uint16(c.conv&0b111) << 7
	word |= uint16(c.avg&0b11) << 5
	word |= bit(c.tnA, 4) | bit(c.pol, 3) | bit(c.drAlert, 2) | bit(c.softReset, 1)
	return word
}

func unpackTmp117Config(word uint16) tmp117Config {
	return tmp117Config{
		highAlert:  word&(1<<15) != 0,
		lowAlert:   word&(1<<14) != 0,
		dataReady:  word&(1<<13) != 0,
		eepromBusy: word&(1<<12) != 0,
		mode:       ConversionMode(word>>10&0b11),
		conv:       uint8(word>>7&0b111),
		avg:        AveragingMode(word>>5&0b11),
		tnA:        word&(1<<4) != 0,
		pol:        word&(1<<3) != 0,
		drAlert:    word&(1<<2) != 0,
		softReset:  word&(1<<1) != 0,
	}
}

type tmp117 struct {
	device
}

func (t *tmp117) readConfig() (tmp117Config, error) {
	word, err := t.readReg16(tmp117RegConfiguration)
	if err != nil {
		return tmp117Config{}, err
	}
	return unpackTmp117Config(word), nil
}

func (t *tmp117) writeConfig(c tmp117Config) error {
	return t.writeReg16(tmp117RegConfiguration, c.pack())
}

// updateConfig is a read-modify-write of the configuration register
func (t *tmp117) updateConfig(fn func(*tmp117Config)) error {
	c, err := t.readConfig()
	if err != nil {
		return err
	}
	fn(&c)
	return t.writeConfig(c)
}

func (t *tmp117) reset() error {
	c := defaultTmp117Config()
	c.softReset = true
	return t.writeConfig(c)
}

// TemperatureSensor is the temperature sensor and unique ID store on both boards.
type TemperatureSensor struct {
	sensor *tmp117
}

// NewTemperatureSensor addresses a sensor at addr
func NewTemperatureSensor(bus Bus, addr uint16) *TemperatureSensor {
	return &TemperatureSensor{&tmp117{device{bus, addr}}}
}

// Init resets the sensor and leaves it free running with the longest averaging and
// the shortest conversion cycle, so a new result lands about once a second.
func (s *TemperatureSensor) Init() error {
	if err := s.sensor.reset(); err != nil {
		return err
	}
	if err := s.sensor.updateConfig(func(c *tmp117Config) { c.mode = ConversionContinuous }); err != nil {
		return err
	}
	if err := s.sensor.updateConfig(func(c *tmp117Config) { c.conv = 0 }); err != nil {
		return err
	}
	return s.sensor.updateConfig(func(c *tmp117Config) { c.avg = Averaging64 })
}

// Temperature is the last conversion result in degrees C
func (s *TemperatureSensor) Temperature() (float64, error) {
	raw, err := s.sensor.readReg16(tmp117RegTemperature)
	if err != nil {
		return 0, err
	}
	return float64(int16(raw)) * tmp117Scale, nil
}

// UID assembles the unique ID from the three EEPROM words
func (s *TemperatureSensor) UID() (uint64, error) {
	var uid uint64
	for _, reg := range []byte{tmp117RegEEPROM1, tmp117RegEEPROM2, tmp117RegEEPROM3} {
		word, err := s.sensor.readReg16(reg)
		if err != nil {
			return 0, err
		}
		uid = uid<<16 | uint64(word)
	}
	return uid, nil
}
