package rfof

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// InstrumentedBus serialises access to a Bus shared by several peripherals, traces every
// transaction and keeps diagnostic counters.
type InstrumentedBus struct {
	mu     sync.Mutex
	bus    Bus
	logger *slog.Logger
	diag   *busDiagnosticManager
	closed bool
}

// Instrument wraps bus. A nil logger discards all trace output.
func Instrument(bus Bus, logger *slog.Logger) *InstrumentedBus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InstrumentedBus{bus: bus, logger: logger, diag: newBusDiagnosticManager()}
}

// Tx forwards the transaction to the wrapped bus while holding the bus lock.
func (ib *InstrumentedBus) Tx(addr uint16, w, r []byte) error {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return BusErrorF(ErrClosed, "i2c tx 0x%02x", addr)
	}
	err := ib.bus.Tx(addr, w, r)
	ib.diag.transaction(addr, len(w), len(r), err != nil)
	if err != nil {
		ib.logger.Warn("i2c transaction failed", "addr", hexAddr(addr), "write", hexBytes(w), "read_len", len(r), "err", err)
		return err
	}
	if ib.logger.Enabled(context.Background(), slog.LevelDebug) {
		ib.logger.Debug("i2c transaction", "addr", hexAddr(addr), "write", hexBytes(w), "read", hexBytes(r))
	}
	return nil
}

// Diagnostics returns the current diagnostic counters
func (ib *InstrumentedBus) Diagnostics() BusDiagnostics {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return BusDiagnostics{}
	}
	return ib.diag.getDiagnostics()
}

// EventLog returns up to the 64 most recent transactions, newest first. Each entry holds the
// 7-bit address in the low byte, bit 8 set for a write phase, bit 9 for a read phase and
// bit 10 if the transaction failed.
func (ib *InstrumentedBus) EventLog() []int {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return nil
	}
	return ib.diag.getEventLog()
}

// ClearDiagnostics resets all counters and the event log
func (ib *InstrumentedBus) ClearDiagnostics() {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if !ib.closed {
		ib.diag.clear()
	}
}

// Close closes the wrapped bus. Closing twice is not an error.
func (ib *InstrumentedBus) Close() error {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	if ib.closed {
		return nil
	}
	ib.closed = true
	ib.diag.stop()
	ib.logger.Debug("i2c bus closed")
	return ib.bus.Close()
}

func hexAddr(addr uint16) string {
	return fmt.Sprintf("0x%02x", addr)
}

func hexBytes(data []byte) string {
	return fmt.Sprintf("% x", data)
}
