package rfof

import "fmt"

// CAT5171 256 position digital potentiometer setting the laser current source.
const (
	cat5171AddrBase = 0x2c

	// MaxLaserCurrent is the full scale of the laser current source in mA
	MaxLaserCurrent = 50.0
)

type cat5171 struct {
	device
}

// setState writes the wiper. The instruction byte is always 0 (no midscale reset, no shutdown).
func (c *cat5171) setState(word byte) error {
	return c.write(0, word)
}

func (c *cat5171) getState() (byte, error) {
	buf := make([]byte, 1)
	if err := c.read(buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Digipot controls the laser current on the transmitter board.
type Digipot struct {
	pot *cat5171
}

// NewDigipot addresses the digipot; ad0 is the state of its address pin.
func NewDigipot(bus Bus, ad0 bool) *Digipot {
	addr := uint16(cat5171AddrBase)
	if ad0 {
		addr |= 1
	}
	return &Digipot{&cat5171{device{bus, addr}}}
}

// SetRaw writes the wiper position
func (d *Digipot) SetRaw(word byte) error {
	return d.pot.setState(word)
}

// Set sets the laser current in mA, truncated to the nearest wiper step below.
func (d *Digipot) Set(current float64) error {
	if !inRange(current, 0, MaxLaserCurrent) {
		return fmt.Errorf("laser current %v mA out of bounds (0 - %v): %w", current, MaxLaserCurrent, ErrOutOfRange)
	}
	return d.SetRaw(byte(current * 255 / MaxLaserCurrent))
}

// Get reads the laser current setpoint in mA
func (d *Digipot) Get() (float64, error) {
	word, err := d.pot.getState()
	if err != nil {
		return 0, err
	}
	return float64(word) * MaxLaserCurrent / 255, nil
}
