package main

/*
This program runs a board through every endpoint the driver exposes and prints each result.
Prerequisites:

Board:
 - FTX or FRX connected to the I2C bus of the host (Raspberry Pi header pins 3 and 5 for /dev/i2c-1)
 - i2c-dev loaded (dtparam=i2c_arm=on)

Without hardware, run it against the simulated board with --device sim.
*/

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eigsep/rfof"
	"github.com/jessevdk/go-flags"
)

type options struct {
	Device  string `long:"device" default:"/dev/i2c-1" env:"RFOF_DEVICE" description:"I2C bus device node, or sim for a simulated board"`
	Module  string `long:"module" choice:"ftx" choice:"frx" description:"Board type (default from the board profile)"`
	Config  string `long:"config" env:"RFOF_CONFIG" value-name:"FILE" description:"YAML board profile"`
	Verbose bool   `short:"v" long:"verbose" description:"Trace bus transactions to stderr"`
}

type processor func() (interface{}, error)

func process(out io.Writer, reason string, fn processor) {
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, reason)
	if val, err := fn(); err != nil {
		fmt.Fprintf(out, "  Unable to %v: %v\n", reason, err)
	} else {
		fmt.Fprintf(out, "  %v\n", val)
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := options{}
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "testBoard"
	if _, err := parser.ParseArgs(args); err != nil {
		fmt.Fprintln(stdout, err)
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := rfof.DefaultBoardConfig()
	if opts.Config != "" {
		var err error
		if cfg, err = rfof.LoadBoardConfig(opts.Config); err != nil {
			fmt.Fprintf(stdout, "Error loading board profile: %v\n", err)
			return 1
		}
	}
	if opts.Module != "" {
		cfg.Module = opts.Module
	}

	fmt.Fprintf(stdout, "Starting board %v on %v\n", cfg, opts.Device)
	switch cfg.Module {
	case rfof.ModuleFrx:
		frx, err := rfof.OpenFrx(opts.Device, cfg, logger)
		if err != nil {
			fmt.Fprintf(stdout, "Error opening board: %v\n", err)
			return 1
		}
		defer frx.Close()
		exerciseFrx(stdout, frx)
	default:
		ftx, err := rfof.OpenFtx(opts.Device, cfg, logger)
		if err != nil {
			fmt.Fprintf(stdout, "Error opening board: %v\n", err)
			return 1
		}
		defer ftx.Close()
		exerciseFtx(stdout, ftx)
	}
	return 0
}

func exerciseFtx(out io.Writer, ftx *rfof.Ftx) {
	process(out, "read unique ID", func() (interface{}, error) {
		uid, err := ftx.UID()
		return fmt.Sprintf("0x%012x", uid), err
	})

	process(out, "read temperature", func() (interface{}, error) {
		temp, err := ftx.Temperature()
		return fmt.Sprintf("%.2f C", temp), err
	})

	process(out, "set attenuation to 10.5 dB", func() (interface{}, error) {
		return "done", ftx.SetAttenuation(10.5)
	})

	process(out, "read attenuation", func() (interface{}, error) {
		atten, err := ftx.Attenuation()
		return fmt.Sprintf("%v dB", atten), err
	})

	process(out, "enable LNA bias", func() (interface{}, error) {
		return "done", ftx.SetLNAEnabled(true)
	})

	process(out, "set laser current to 25 mA", func() (interface{}, error) {
		return "done", ftx.SetLaserCurrent(25)
	})

	process(out, "read laser current setpoint", func() (interface{}, error) {
		current, err := ftx.LaserCurrent()
		return fmt.Sprintf("%.2f mA", current), err
	})

	process(out, "read monitors", func() (interface{}, error) {
		m, err := ftx.Monitor()
		return fmt.Sprintf("%+v", m), err
	})

	process(out, "disable LNA bias", func() (interface{}, error) {
		return "done", ftx.SetLNAEnabled(false)
	})

	process(out, "zero laser current", func() (interface{}, error) {
		return "done", ftx.SetLaserCurrent(0)
	})

	process(out, "restore attenuation to 0 dB", func() (interface{}, error) {
		return "done", ftx.SetAttenuation(0)
	})

	processDiagnostics(out, ftx.Bus())
}

func exerciseFrx(out io.Writer, frx *rfof.Frx) {
	process(out, "read unique ID", func() (interface{}, error) {
		uid, err := frx.UID()
		return fmt.Sprintf("0x%012x", uid), err
	})

	process(out, "read temperature", func() (interface{}, error) {
		temp, err := frx.Temperature()
		return fmt.Sprintf("%.2f C", temp), err
	})

	process(out, "set attenuation to 10.5 dB", func() (interface{}, error) {
		return "done", frx.SetAttenuation(10.5)
	})

	process(out, "read attenuation", func() (interface{}, error) {
		atten, err := frx.Attenuation()
		return fmt.Sprintf("%v dB", atten), err
	})

	process(out, "read monitors", func() (interface{}, error) {
		m, err := frx.Monitor()
		return fmt.Sprintf("%+v", m), err
	})

	process(out, "restore attenuation to 0 dB", func() (interface{}, error) {
		return "done", frx.SetAttenuation(0)
	})

	processDiagnostics(out, frx.Bus())
}

func processDiagnostics(out io.Writer, bus rfof.Bus) {
	ib, ok := bus.(*rfof.InstrumentedBus)
	if !ok {
		return
	}
	process(out, "read bus diagnostics", func() (interface{}, error) {
		return fmt.Sprintf("%+v", ib.Diagnostics()), nil
	})
	process(out, "read bus event log", func() (interface{}, error) {
		return fmt.Sprintf("%03x", ib.EventLog()), nil
	})
}
