package rfof

/*
This file contains the storage and management go-routine for keeping track of bus diagnostic counts.
*/

// BusDiagnostics are values that summarize the bus status
type BusDiagnostics struct {
	// Transactions is the number of transactions attempted on the bus
	Transactions int
	// Writes is the number of transactions with a write phase
	Writes int
	// Reads is the number of transactions with a read phase
	Reads int
	// Errors is the number of transactions that failed
	Errors int
	// BytesOut is the number of bytes written by successful transactions
	BytesOut int
	// BytesIn is the number of bytes read by successful transactions
	BytesIn int
}

// event log entries are the 7-bit address in the low byte and these flags above it
const (
	busEventWrite = 1 << 8
	busEventRead  = 1 << 9
	busEventError = 1 << 10
)

const busLogSize = 64

type busDiagnosticManager struct {
	diagnostics BusDiagnostics
	operation   chan func()
	logCount    int
	logEntries  [busLogSize]int
}

func newBusDiagnosticManager() *busDiagnosticManager {
	dm := &busDiagnosticManager{}
	dm.operation = make(chan func(), 10)
	go dm.manager()
	return dm
}

func (bdm *busDiagnosticManager) manager() {
	for fn := range bdm.operation {
		fn()
	}
}

// stop ends the manager go-routine. No other method may be called afterwards.
func (bdm *busDiagnosticManager) stop() {
	close(bdm.operation)
}

func (bdm *busDiagnosticManager) plog(value int) {
	bdm.logEntries[bdm.logCount%busLogSize] = value
	bdm.logCount++
}

func (bdm *busDiagnosticManager) clear() {
	done := make(chan bool)
	bdm.operation <- func() {
		bdm.diagnostics = BusDiagnostics{}
		bdm.logCount = 0
		close(done)
	}
	<-done
}

func (bdm *busDiagnosticManager) getDiagnostics() BusDiagnostics {
	got := make(chan BusDiagnostics)
	bdm.operation <- func() {
		got <- bdm.diagnostics
		close(got)
	}
	return <-got
}

func (bdm *busDiagnosticManager) transaction(addr uint16, wlen, rlen int, failed bool) {
	done := make(chan bool)
	bdm.operation <- func() {
		bdm.diagnostics.Transactions++
		event := int(addr & 0x7f)
		if wlen > 0 {
			bdm.diagnostics.Writes++
			event |= busEventWrite
		}
		if rlen > 0 {
			bdm.diagnostics.Reads++
			event |= busEventRead
		}
		if failed {
			bdm.diagnostics.Errors++
			event |= busEventError
		} else {
			bdm.diagnostics.BytesOut += wlen
			bdm.diagnostics.BytesIn += rlen
		}
		bdm.plog(event)
		close(done)
	}
	<-done
}

// getEventLog returns the most recent events first
func (bdm *busDiagnosticManager) getEventLog() []int {
	done := make(chan []int)
	bdm.operation <- func() {
		count := bdm.logCount
		if count > busLogSize {
			count = busLogSize
		}
		ret := make([]int, count)
		for i := range ret {
			ret[i] = bdm.logEntries[(bdm.logCount-i-1)%busLogSize]
		}
		done <- ret
		close(done)
	}
	return <-done
}
