//go:build !linux

package rfof

import "errors"

var errNoI2CDev = errors.New("i2c-dev is only available on linux")

// I2CDev is a Linux i2c-dev controller. On this platform it can never be opened.
type I2CDev struct {
	name string
}

// NewI2CDev always fails on non-linux platforms; use a SimBoard instead.
func NewI2CDev(path string) (*I2CDev, error) {
	return nil, ConstructionErrorF(errNoI2CDev, "could not open I2C bus %v", path)
}

// Name is the device path the bus was opened with
func (d *I2CDev) Name() string {
	return d.name
}

func (d *I2CDev) Tx(addr uint16, w, r []byte) error {
	return BusErrorF(errNoI2CDev, "i2c tx 0x%02x on %v", addr, d.name)
}

func (d *I2CDev) Close() error {
	return nil
}
