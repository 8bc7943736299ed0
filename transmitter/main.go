package main

/*
transmitter controls an FTX board from the command line. Each requested action runs once, in a fixed order,
and the first failure ends the program with exit status 1.

	transmitter --atten 15.25 --read_temp
	transmitter --device sim --read_atten --monitor --diag
*/

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/eigsep/rfof"
	"github.com/jessevdk/go-flags"
)

// Options are the command line flags
type Options struct {
	Device    string   `long:"device" default:"/dev/i2c-1" env:"RFOF_DEVICE" description:"I2C bus device node, or sim for a simulated board"`
	Atten     *float64 `long:"atten" value-name:"DB" description:"Set the attenuation in dB (0 - 31.5)"`
	ReadTemp  bool     `long:"read_temp" description:"Read the transmitter temperature"`
	ReadAtten bool     `long:"read_atten" description:"Read the attenuation"`
	LNA       string   `long:"lna" choice:"on" choice:"off" description:"Switch the LNA bias"`
	LDCurrent *float64 `long:"ld_current" value-name:"MA" description:"Set the laser current in mA (0 - 50)"`
	ReadUID   bool     `long:"read_uid" description:"Read the board unique ID"`
	Monitor   bool     `long:"monitor" description:"Read every analog monitor"`
	Config    string   `long:"config" env:"RFOF_CONFIG" value-name:"FILE" description:"YAML board profile"`
	Verbose   bool     `short:"v" long:"verbose" description:"Trace bus transactions to stderr"`
	Diag      bool     `long:"diag" description:"Print bus diagnostic counters"`
}

// transmitter is what the command needs from a board. *rfof.Ftx satisfies it.
type transmitter interface {
	SetAttenuation(db float64) error
	Attenuation() (float64, error)
	Temperature() (float64, error)
	SetLNAEnabled(enable bool) error
	SetLaserCurrent(current float64) error
	UID() (uint64, error)
	Monitor() (rfof.FtxMonitor, error)
	Bus() rfof.Bus
	Close() error
}

type opener func(device string, cfg rfof.BoardConfig, logger *slog.Logger) (transmitter, error)

func openFtx(device string, cfg rfof.BoardConfig, logger *slog.Logger) (transmitter, error) {
	ftx, err := rfof.OpenFtx(device, cfg, logger)
	if err != nil {
		return nil, err
	}
	return ftx, nil
}

type diagnosable interface {
	Diagnostics() rfof.BusDiagnostics
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, openFtx))
}

func run(args []string, stdout, stderr io.Writer, open opener) int {
	opts := Options{}
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "transmitter"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stdout, err)
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}
	if len(rest) > 0 {
		fmt.Fprintf(stdout, "unexpected arguments: %v\n", strings.Join(rest, " "))
		return 1
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := rfof.DefaultBoardConfig()
	if opts.Config != "" {
		if cfg, err = rfof.LoadBoardConfig(opts.Config); err != nil {
			fmt.Fprintf(stdout, "Failed to initialize transmitter: %v\n", err)
			return 1
		}
	}

	tx, err := open(opts.Device, cfg, logger)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to initialize transmitter: %v\n", err)
		return 1
	}
	defer tx.Close()

	if opts.Atten != nil {
		if err := tx.SetAttenuation(*opts.Atten); err != nil {
			fmt.Fprintf(stdout, "Error setting attenuation: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Successfully set attenuation to %v dB\n", formatFloat(*opts.Atten))
	}

	if opts.ReadTemp {
		temp, err := tx.Temperature()
		if err != nil {
			fmt.Fprintf(stdout, "Failed to read temperature: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Transmitter Temp: %.2f C˚\n", temp)
	}

	if opts.ReadAtten {
		atten, err := tx.Attenuation()
		if err != nil {
			fmt.Fprintf(stdout, "Failed to read Ftx attenuation. %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "attenuation: %v dB.\n", formatFloat(atten))
	}

	if opts.LNA != "" {
		enable := opts.LNA == "on"
		if err := tx.SetLNAEnabled(enable); err != nil {
			fmt.Fprintf(stdout, "Error setting LNA bias: %v\n", err)
			return 1
		}
		if enable {
			fmt.Fprintln(stdout, "LNA bias enabled")
		} else {
			fmt.Fprintln(stdout, "LNA bias disabled")
		}
	}

	if opts.LDCurrent != nil {
		if err := tx.SetLaserCurrent(*opts.LDCurrent); err != nil {
			fmt.Fprintf(stdout, "Error setting laser current: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Successfully set laser current to %v mA\n", formatFloat(*opts.LDCurrent))
	}

	if opts.ReadUID {
		uid, err := tx.UID()
		if err != nil {
			fmt.Fprintf(stdout, "Failed to read unique ID: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Unique ID: 0x%012x\n", uid)
	}

	if opts.Monitor {
		m, err := tx.Monitor()
		if err != nil {
			fmt.Fprintf(stdout, "Failed to read monitor values: %v\n", err)
			return 1
		}
		printMonitor(stdout, m)
	}

	if opts.Diag {
		printDiagnostics(stdout, tx.Bus())
	}
	return 0
}
