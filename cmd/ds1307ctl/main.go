// Command ds1307ctl reads and sets a DS1307 or PCF8523 real-time clock
// attached to a Linux I2C bus, synchronises it from NTP and publishes its
// time over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ajanata/drivers/internal/logging"
	"github.com/ajanata/drivers/periphbus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ds1307ctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("ds1307ctl", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a TOML config file")
	busName := fs.String("bus", "", "I2C bus name, e.g. /dev/i2c-1 (default: first bus)")
	chip := fs.String("chip", "", "clock chip: ds1307 or pcf8523")
	logLevel := fs.String("log-level", "", "trace, debug, info, warn or error")
	var addr uint64
	fs.Func("addr", "7-bit I2C address of the clock", func(s string) error {
		v, err := strconv.ParseUint(s, 0, 7)
		if err != nil {
			return err
		}
		if v == 0 {
			return fmt.Errorf("address %#x out of range", v)
		}
		addr = v
		return nil
	})
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: ds1307ctl [flags] [command [args]]")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "commands:")
		(&app{out: fs.Output()}).help(ctx, nil)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Bus = *busName
		case "chip":
			cfg.Chip = *chip
		case "log-level":
			cfg.LogLevel = *logLevel
		case "addr":
			cfg.Address = uint16(addr)
		}
	})
	if err := cfg.validate(); err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel})
	bus, err := periphbus.Open(cfg.Bus, cfg.Frequency)
	if err != nil {
		return err
	}
	defer bus.Close()
	log.Debug().Str("bus", bus.String()).Str("chip", cfg.Chip).Uint16("addr", cfg.Address).Msg("bus open")

	a, err := newApp(bus, cfg, log, out)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 && fs.Arg(0) == "shell" {
		return a.shell(ctx, in)
	}
	return a.exec(ctx, fs.Args())
}
