/*
Package rfof drives the RF-over-fiber transmitter (FTX) and receiver (FRX) boards over an I2C bus.

Every board hangs a handful of small peripherals off one I2C bus: a bus expander driving a digital step
attenuator, a temperature sensor that also carries the board's unique ID, an ADC monitoring the RF and DC
rails and, on the transmitter, a digital potentiometer setting the laser current. The package hides the
register level detail of each chip and exposes the boards as Ftx and Frx values.

Opening a transmitter on a Raspberry Pi (or any Linux host with i2c-dev) is a single call:

    ftx, _ := rfof.OpenFtx("/dev/i2c-1", rfof.DefaultBoardConfig(), nil)
    defer ftx.Close()

OpenFtx opens the device node, resets and configures every peripheral, and leaves the attenuator at 0 dB.
With a board in hand you can set and read back the attenuation, read the temperature and so on:

    _ = ftx.SetAttenuation(15.25)
    temp, _ := ftx.Temperature()
    fmt.Printf("Board is at %.2f C\n", temp)

The drivers only need something that implements Bus, so the same Ftx and Frx code runs against the Linux
device (NewI2CDev) or against SimBoard, an in-memory model of the boards that answers transactions the way
the chips do. Wrap either in an InstrumentedBus to share it safely between peripherals, to trace every
transaction through log/slog, and to keep diagnostic counters.

All failures are returned as *Error values whose Kind says which operation failed (construction, set
attenuation, get temperature, ...). Use IsKind to test for a kind, and errors.Is to test the cause
(ErrOutOfRange, ErrClosed, or the errno from the bus).
*/
package rfof

// Bus is a host side I2C controller. All peripherals on a board share one Bus.
type Bus interface {
	// Tx writes w (if not empty) to the device at addr, then reads len(r) bytes into r (if not empty).
	// When both are given the read follows the write with a repeated start.
	Tx(addr uint16, w, r []byte) error
	// Close releases the controller.
	Close() error
}

// device is a single chip at a fixed address on a Bus.
type device struct {
	bus  Bus
	addr uint16
}

func (d *device) write(data ...byte) error {
	return d.bus.Tx(d.addr, data, nil)
}

func (d *device) read(buf []byte) error {
	return d.bus.Tx(d.addr, nil, buf)
}

func (d *device) writeRead(w []byte, r []byte) error {
	return d.bus.Tx(d.addr, w, r)
}

// readReg8 reads a byte register addressed by a one byte pointer.
func (d *device) readReg8(reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := d.writeRead([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readReg16 reads a big-endian 16-bit register addressed by a one byte pointer.
func (d *device) readReg16(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := d.writeRead([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return getWord(buf, 0), nil
}

// writeReg16 writes a big-endian 16-bit register addressed by a one byte pointer.
func (d *device) writeReg16(reg byte, value uint16) error {
	data := make([]byte, 3)
	data[0] = reg
	setWord(data, 1, value)
	return d.write(data...)
}
