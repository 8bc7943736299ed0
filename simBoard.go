package rfof

import (
	"errors"
	"math"
	"strings"
	"sync"
)

// ErrNoAck is the failure SimBoard reports for an address nothing answers on.
var ErrNoAck = errors.New("no acknowledge from device")

// SimDevice is the device name that opens a SimBoard in place of an i2c-dev node. It may name the
// board, as in "sim:frx".
const SimDevice = "sim"

// simDevice reports whether device names a simulated board, failing if it names a board other than module.
func simDevice(device, module string) (bool, error) {
	name, board, named := strings.Cut(device, ":")
	if name != SimDevice {
		return false, nil
	}
	if !named {
		return true, nil
	}
	if board != ModuleFtx && board != ModuleFrx {
		return true, ConstructionErrorF(nil, "unknown simulated board %q", board)
	}
	if board != module {
		return true, ConstructionErrorF(nil, "simulated %v board cannot be opened as %v", board, module)
	}
	return true, nil
}

// power-on register values
const (
	simTca6408PortDefault   = 0xff
	simTmp117ConfigDefault  = 0x0220
	simCat5171WiperDefault  = 0x80
	simDefaultTemperature   = 22.0
	simDefaultUID           = 0x123456789abc
	simTla2528RegisterCount = 0x20
)

/*
SimBoard is an in-memory model of an FTX or FRX board. It implements Bus and answers each transaction the
way the chips on the real board do, holding their registers in memory. It is used in place of hardware for
tests and for dry runs of the command line tools.

Analog inputs (temperature, ADC channels) are set directly, and Fail makes every transaction to an address
fail until cleared, to exercise error paths.
*/
type SimBoard struct {
	mu       sync.Mutex
	module   string
	expander *simTca6408a
	sensor   *simTmp117
	adc      *simTla2528
	pot      *simCat5171
	faults   map[uint16]error
	closed   bool
}

// NewSimBoard builds a board with the peripherals and addresses of cfg, in their power-on state.
func NewSimBoard(cfg BoardConfig) *SimBoard {
	s := &SimBoard{module: cfg.Module, faults: make(map[uint16]error)}
	s.expander = &simTca6408a{addr: NewAttenuator(nil, cfg.Attenuator.AddressBit).expander.addr}
	s.expander.reset()
	s.sensor = &simTmp117{addr: cfg.Temperature.Address}
	s.sensor.reset()
	s.sensor.setTemperature(simDefaultTemperature)
	s.sensor.setUID(simDefaultUID)
	s.adc = &simTla2528{addr: cfg.ADC.Address}
	s.adc.reset()
	if cfg.Module != ModuleFrx {
		s.pot = &simCat5171{addr: NewDigipot(nil, cfg.Digipot.AD0).pot.addr, wiper: simCat5171WiperDefault}
	}
	return s
}

// Module is the board type being modelled
func (s *SimBoard) Module() string {
	return s.module
}

// Tx dispatches the transaction to the chip at addr
func (s *SimBoard) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return BusErrorF(ErrClosed, "i2c tx 0x%02x on sim", addr)
	}
	if err := s.faults[addr]; err != nil {
		return BusErrorF(err, "i2c tx 0x%02x on sim", addr)
	}
	var err error
	switch {
	case addr == s.expander.addr:
		err = s.expander.tx(w, r)
	case addr == s.sensor.addr:
		err = s.sensor.tx(w, r)
	case addr == s.adc.addr:
		err = s.adc.tx(w, r)
	case s.pot != nil && addr == s.pot.addr:
		err = s.pot.tx(w, r)
	default:
		err = ErrNoAck
	}
	if err != nil {
		return BusErrorF(err, "i2c tx 0x%02x on sim", addr)
	}
	return nil
}

// Close marks the board closed; later transactions fail with ErrClosed
func (s *SimBoard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Fail makes every transaction to addr fail with err. A nil err clears the fault.
func (s *SimBoard) Fail(addr uint16, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, addr)
		return
	}
	s.faults[addr] = err
}

// SetTemperature sets the sensor's latest conversion result in degrees C
func (s *SimBoard) SetTemperature(celsius float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensor.setTemperature(celsius)
}

// SetTemperatureRaw sets the sensor's result register directly
func (s *SimBoard) SetTemperatureRaw(raw uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensor.regs[tmp117RegTemperature] = raw
}

// SetUID sets the 48-bit unique ID held in the sensor EEPROM
func (s *SimBoard) SetUID(uid uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensor.setUID(uid)
}

// SetChannel sets the 12-bit code an ADC channel converts to
func (s *SimBoard) SetChannel(channel uint8, code uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adc.codes[channel&7] = code & 0xfff
}

// SetChannelSamples queues the codes returned by the next conversions on a channel, after which
// the channel returns to its set code
func (s *SimBoard) SetChannelSamples(channel uint8, codes ...uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adc.queued[channel&7] = append([]uint16(nil), codes...)
}

// Attenuation is the word latched into the step attenuator
func (s *SimBoard) Attenuation() Attenuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Attenuation(s.expander.regs[tca6408RegOutputPort] & attenWordMask)
}

// AttenuatorConfigured is true once every expander pin is an output
func (s *SimBoard) AttenuatorConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expander.regs[tca6408RegConfiguration] == 0
}

// SensorConfig is the raw TMP117 configuration register
func (s *SimBoard) SensorConfig() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensor.regs[tmp117RegConfiguration]
}

// ADCRegister is the raw value of a TLA2528 register
func (s *SimBoard) ADCRegister(reg byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adc.regs[reg%simTla2528RegisterCount]
}

// ADCCalibrated is true once a calibration has been requested since the last reset
func (s *SimBoard) ADCCalibrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adc.calibrated
}

// LNAEnabled is the state of the LNA bias load switch on the transmitter
func (s *SimBoard) LNAEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adc.output(ftxChanLNAEn)
}

// Wiper is the digipot wiper position, 0 on a receiver
func (s *SimBoard) Wiper() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pot == nil {
		return 0
	}
	return s.pot.wiper
}

type simTca6408a struct {
	addr uint16
	regs [4]byte
}

func (t *simTca6408a) reset() {
	t.regs = [4]byte{0, simTca6408PortDefault, 0, 0xff}
}

func (t *simTca6408a) tx(w, r []byte) error {
	if len(w) == 0 {
		return errors.New("tca6408a: read without register pointer")
	}
	reg := w[0]
	if int(reg) >= len(t.regs) {
		return errors.New("tca6408a: no such register")
	}
	if len(w) > 1 && reg != 0 {
		t.regs[reg] = w[1]
	}
	for i := range r {
		r[i] = t.regs[reg]
	}
	return nil
}

type simTmp117 struct {
	addr uint16
	ptr  byte
	regs map[byte]uint16
}

func (t *simTmp117) reset() {
	eeprom := map[byte]uint16{}
	for _, reg := range []byte{tmp117RegEEPROM1, tmp117RegEEPROM2, tmp117RegEEPROM3} {
		eeprom[reg] = t.regs[reg]
	}
	temp := t.regs[tmp117RegTemperature]
	t.regs = map[byte]uint16{tmp117RegConfiguration: simTmp117ConfigDefault, tmp117RegTemperature: temp}
	for reg, v := range eeprom {
		t.regs[reg] = v
	}
	t.ptr = 0
}

func (t *simTmp117) setTemperature(celsius float64) {
	t.regs[tmp117RegTemperature] = uint16(int16(math.Round(celsius / tmp117Scale)))
}

func (t *simTmp117) setUID(uid uint64) {
	t.regs[tmp117RegEEPROM1] = uint16(uid >> 32)
	t.regs[tmp117RegEEPROM2] = uint16(uid >> 16)
	t.regs[tmp117RegEEPROM3] = uint16(uid)
}

func (t *simTmp117) tx(w, r []byte) error {
	if len(w) > 0 {
		t.ptr = w[0]
		if _, ok := t.regs[t.ptr]; !ok {
			return errors.New("tmp117: no such register")
		}
	}
	if len(w) == 3 && t.ptr == tmp117RegConfiguration {
		word := getWord(w, 1)
		if word&(1<<1) != 0 {
			t.reset()
			return nil
		}
		t.regs[tmp117RegConfiguration] = word
	}
	if len(r) > 0 {
		buf := make([]byte, 2)
		setWord(buf, 0, t.regs[t.ptr])
		for i := range r {
			r[i] = buf[i%2]
		}
	}
	return nil
}

type simTla2528 struct {
	addr       uint16
	regs       [simTla2528RegisterCount]byte
	codes      [8]uint16
	queued     [8][]uint16
	calibrated bool
}

func (a *simTla2528) reset() {
	a.regs = [simTla2528RegisterCount]byte{}
	a.calibrated = false
}

func (a *simTla2528) output(channel uint8) bool {
	mask := byte(1) << channel
	return a.regs[tla2528RegPinCfg]&mask != 0 && a.regs[tla2528RegGpioCfg]&mask != 0 && a.regs[tla2528RegGpoValue]&mask != 0
}

func (a *simTla2528) tx(w, r []byte) error {
	if len(w) > 0 {
		if len(w) < 3 {
			return errors.New("tla2528: short command")
		}
		reg := w[1] % simTla2528RegisterCount
		switch w[0] {
		case tla2528OpSingleWrite:
			a.regs[reg] = w[2]
		case tla2528OpSetBit:
			if reg == tla2528RegGeneralCfg && w[2]&1 != 0 {
				a.reset()
				return nil
			}
			if reg == tla2528RegSystemStatus && w[2]&1 != 0 {
				a.calibrated = true
			}
			a.regs[reg] |= w[2]
		case tla2528OpClearBit:
			a.regs[reg] &^= w[2]
		default:
			return errors.New("tla2528: unknown opcode")
		}
	}
	channel := a.regs[tla2528RegChannelSel] & 7
	for i := 0; i+1 < len(r); i += 2 {
		var code uint16
		if a.regs[tla2528RegPinCfg]&(1<<channel) == 0 {
			code = a.codes[channel]
			if q := a.queued[channel]; len(q) > 0 {
				code, a.queued[channel] = q[0], q[1:]
			}
		}
		setWord(r, i, code<<4)
	}
	return nil
}

type simCat5171 struct {
	addr  uint16
	wiper byte
}

func (c *simCat5171) tx(w, r []byte) error {
	if len(w) == 2 {
		c.wiper = w[1]
	} else if len(w) != 0 {
		return errors.New("cat5171: bad write length")
	}
	for i := range r {
		r[i] = c.wiper
	}
	return nil
}
