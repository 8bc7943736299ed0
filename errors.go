package rfof

import (
	"errors"
	"fmt"
)

// Kind identifies which board operation an Error came from.
type Kind int

const (
	// KindBus is a raw bus transaction failure not attributed to an operation.
	KindBus Kind = iota + 1
	// KindConstruction means the board handle could not be opened or initialised.
	KindConstruction
	// KindSetAttenuation is a failure setting the step attenuator.
	KindSetAttenuation
	// KindGetAttenuation is a failure reading the step attenuator.
	KindGetAttenuation
	// KindGetTemperature is a failure reading the temperature sensor.
	KindGetTemperature
	// KindGetUID is a failure reading the unique ID.
	KindGetUID
	// KindMonitor is a failure reading an ADC monitor channel.
	KindMonitor
	// KindSetLNA is a failure switching the LNA bias.
	KindSetLNA
	// KindSetLaserCurrent is a failure setting the laser current digipot.
	KindSetLaserCurrent
	// KindConfig is an invalid or unreadable board profile.
	KindConfig
)

var kindNames = map[Kind]string{
	KindBus:             "bus",
	KindConstruction:    "construction",
	KindSetAttenuation:  "set attenuation",
	KindGetAttenuation:  "get attenuation",
	KindGetTemperature:  "get temperature",
	KindGetUID:          "get uid",
	KindMonitor:         "monitor",
	KindSetLNA:          "set lna",
	KindSetLaserCurrent: "set laser current",
	KindConfig:          "config",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrOutOfRange is the cause when a requested setpoint is outside what the hardware supports.
	ErrOutOfRange = errors.New("out of range")
	// ErrClosed is returned for transactions on a bus that has been closed.
	ErrClosed = errors.New("bus closed")
)

// Error is a custom type for board errors
type Error struct {
	msg  string
	kind Kind
	err  error
}

func (err *Error) Error() string {
	if err.err == nil {
		return err.msg
	}
	return err.msg + ": " + err.err.Error()
}

// Kind is the operation that failed
func (err *Error) Kind() Kind {
	return err.kind
}

func (err *Error) Unwrap() error {
	return err.err
}

func kindErrorF(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{fmt.Sprintf(format, args...), kind, cause}
}

// BusErrorF represents a failed transaction on the bus itself
func BusErrorF(cause error, format string, args ...interface{}) *Error {
	return kindErrorF(KindBus, cause, format, args...)
}

// ConstructionErrorF represents a failure to open or initialise a board
func ConstructionErrorF(cause error, format string, args ...interface{}) *Error {
	return kindErrorF(KindConstruction, cause, format, args...)
}

// ConfigErrorF represents an invalid board profile
func ConfigErrorF(cause error, format string, args ...interface{}) *Error {
	return kindErrorF(KindConfig, cause, format, args...)
}

// opError attributes a lower level failure to an operation. Errors that already
// carry an operation kind keep it.
func opError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var rErr *Error
	if errors.As(err, &rErr) && rErr.kind != KindBus {
		return err
	}
	return kindErrorF(kind, err, "I2C error")
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var rErr *Error
		if !errors.As(err, &rErr) {
			return false
		}
		if rErr.kind == kind {
			return true
		}
		err = rErr.err
	}
	return false
}
