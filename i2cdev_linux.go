//go:build linux

package rfof

import (
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// from <linux/i2c-dev.h> and <linux/i2c.h>
const (
	i2cRDWR = 0x0707
	i2cMRD  = 0x0001
	// the kernel refuses more bytes than this in a single message
	i2cMaxMsgLen = 8192
)

// i2cMsg mirrors struct i2c_msg
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data
type i2cRdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CDev is a Linux i2c-dev controller, for example /dev/i2c-1 on a Raspberry Pi.
type I2CDev struct {
	name string
	mu   sync.Mutex
	fd   int
}

// NewI2CDev opens the i2c-dev device node at path.
func NewI2CDev(path string) (*I2CDev, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, ConstructionErrorF(err, "could not open I2C bus %v", path)
	}
	return &I2CDev{name: path, fd: fd}, nil
}

// Name is the device path the bus was opened with
func (d *I2CDev) Name() string {
	return d.name
}

// Tx performs the write and/or read as one combined I2C_RDWR transfer.
func (d *I2CDev) Tx(addr uint16, w, r []byte) error {
	if len(w) > i2cMaxMsgLen || len(r) > i2cMaxMsgLen {
		return BusErrorF(ErrOutOfRange, "i2c tx 0x%02x on %v: message too long", addr, d.name)
	}
	msgs := make([]i2cMsg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, i2cMsg{addr: addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))})
	}
	if len(r) > 0 {
		msgs = append(msgs, i2cMsg{addr: addr, flags: i2cMRD, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))})
	}
	if len(msgs) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return BusErrorF(ErrClosed, "i2c tx 0x%02x on %v", addr, d.name)
	}
	data := i2cRdwrData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), i2cRDWR, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	runtime.KeepAlive(msgs)
	if errno != 0 {
		return BusErrorF(errno, "i2c tx 0x%02x on %v", addr, d.name)
	}
	return nil
}

// Close closes the device node. Closing twice is not an error.
func (d *I2CDev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
