package rfof

import (
	"fmt"
	"math"
)

// TCA6408A bus expander, only ever driven in output mode. Its port drives the parallel
// interface of an F1958 digital step attenuator.
const (
	tca6408AddrPreamble = 0x20

	tca6408RegOutputPort    = 0x01
	tca6408RegConfiguration = 0x03

	// latch enable for the F1958, must be high for the word to take
	attenLatchEnable = 0x80
	attenWordMask    = 0x7f
)

const (
	// AttenuationStep is the resolution of the step attenuator in dB
	AttenuationStep = 0.25
	// MaxAttenuation is the largest attenuation the step attenuator supports in dB
	MaxAttenuation = 31.75
)

// Attenuation is an attenuator setting as a count of AttenuationStep steps (0 to 127).
type Attenuation uint8

// AttenuationFromDB converts dB to the nearest setting at or below db. Values outside 0 to
// MaxAttenuation (and NaN) are rejected.
func AttenuationFromDB(db float64) (Attenuation, error) {
	if !inRange(db, 0, MaxAttenuation) {
		return 0, fmt.Errorf("attenuation %v dB out of bounds (0 - %v): %w", db, MaxAttenuation, ErrOutOfRange)
	}
	return Attenuation(math.Floor(db / AttenuationStep)), nil
}

// DB is the setting in dB
func (a Attenuation) DB() float64 {
	return float64(a&attenWordMask) * AttenuationStep
}

func (a Attenuation) String() string {
	return fmt.Sprintf("%v dB", a.DB())
}

type tca6408a struct {
	device
}

func newTca6408a(bus Bus, addrBit bool) *tca6408a {
	addr := uint16(tca6408AddrPreamble)
	if addrBit {
		addr |= 1
	}
	return &tca6408a{device{bus, addr}}
}

// configureOutputs sets every pin to an output
func (t *tca6408a) configureOutputs() error {
	return t.write(tca6408RegConfiguration, 0)
}

func (t *tca6408a) writeWord(word byte) error {
	return t.write(tca6408RegOutputPort, word)
}

func (t *tca6408a) readWord() (byte, error) {
	return t.readReg8(tca6408RegOutputPort)
}

// Attenuator is the digital step attenuator on both boards.
type Attenuator struct {
	expander *tca6408a
}

// NewAttenuator addresses the attenuator's bus expander; addrBit is the state of its address select pin.
func NewAttenuator(bus Bus, addrBit bool) *Attenuator {
	return &Attenuator{newTca6408a(bus, addrBit)}
}

// Init configures the expander outputs and starts at minimum attenuation.
func (a *Attenuator) Init() error {
	if err := a.expander.configureOutputs(); err != nil {
		return err
	}
	return a.Set(0)
}

// SetRaw writes a raw 7-bit attenuation word
func (a *Attenuator) SetRaw(word byte) error {
	return a.expander.writeWord(word&attenWordMask | attenLatchEnable)
}

// Set sets the attenuation
func (a *Attenuator) Set(atten Attenuation) error {
	return a.SetRaw(byte(atten))
}

// Get reads back the attenuation currently latched on the expander port
func (a *Attenuator) Get() (Attenuation, error) {
	word, err := a.expander.readWord()
	if err != nil {
		return 0, err
	}
	return Attenuation(word & attenWordMask), nil
}
