package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/eigsep/rfof"
)

// formatFloat renders v the way operators are used to seeing it: shortest form, always with a
// fractional part (15 prints as 15.0).
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func printMonitor(out io.Writer, m rfof.FtxMonitor) {
	fmt.Fprintf(out, "RF power: %.2f dBm\n", m.RFPower)
	fmt.Fprintf(out, "PD current: %.2f uA\n", m.PDCurrent)
	fmt.Fprintf(out, "LD current: %.2f mA\n", m.LDCurrent)
	fmt.Fprintf(out, "LD setpoint: %.2f mA\n", m.LDSetpoint)
	fmt.Fprintf(out, "LNA current: %.2f mA\n", m.LNACurrent)
	fmt.Fprintf(out, "LNA voltage: %.2f V\n", m.LNAVoltage)
	fmt.Fprintf(out, "VDDA: %.2f V\n", m.AnalogVoltage)
	fmt.Fprintf(out, "VDD: %.2f V\n", m.DigitalVoltage)
}

func printDiagnostics(out io.Writer, bus rfof.Bus) {
	ib, ok := bus.(diagnosable)
	if !ok {
		fmt.Fprintln(out, "Bus diagnostics: unavailable")
		return
	}
	d := ib.Diagnostics()
	fmt.Fprintf(out, "Bus transactions: %d\n", d.Transactions)
	fmt.Fprintf(out, "Bus writes: %d\n", d.Writes)
	fmt.Fprintf(out, "Bus reads: %d\n", d.Reads)
	fmt.Fprintf(out, "Bus errors: %d\n", d.Errors)
	fmt.Fprintf(out, "Bus bytes out: %d\n", d.BytesOut)
	fmt.Fprintf(out, "Bus bytes in: %d\n", d.BytesIn)
}
