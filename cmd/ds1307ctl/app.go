package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajanata/drivers"
	"github.com/ajanata/drivers/ds1307"
	"github.com/ajanata/drivers/internal/ntp"
	"github.com/ajanata/drivers/internal/telemetry"
	"github.com/ajanata/drivers/pcf8523"
)

var errUnsupported = errors.New("not supported by this chip")

// clock is implemented by every RTC driver in this module.
type clock interface {
	Now() (time.Time, error)
	Set(time.Time) error
}

type app struct {
	cfg   config
	log   zerolog.Logger
	out   io.Writer
	clock clock
	// ds is nil unless the chip is a DS1307.
	ds *ds1307.Device

	// connect is swapped out in tests.
	connect func(telemetry.Config) (*telemetry.Publisher, error)
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"get":         {"get", (*app).get},
		"set-time":    {"set-time HH:MM:SS [am|pm]", (*app).setTime},
		"set-date":    {"set-date YYYY-MM-DD", (*app).setDate},
		"set-weekday": {"set-weekday 1-7|name", (*app).setWeekDay},
		"set-now":     {"set-now", (*app).setNow},
		"days":        {"days YYYY-MM", (*app).days},
		"weekday":     {"weekday YYYY-MM-DD", (*app).weekday},
		"sync":        {"sync [server]", (*app).sync},
		"publish":     {"publish", (*app).publish},
		"help":        {"help", (*app).help},
	}
}

// newApp configures the chip selected in cfg on bus.
func newApp(bus drivers.I2C, cfg config, log zerolog.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		log:     log,
		out:     out,
		connect: telemetry.Connect,
	}
	switch cfg.Chip {
	case chipDS1307:
		dev := ds1307.New(bus)
		dt, err := dev.Configure(ds1307.Config{Address: cfg.Address, Logger: &log})
		if err != nil {
			return nil, err
		}
		log.Debug().Stringer("datetime", dt).Msg("ds1307 ready")
		a.ds = &dev
		a.clock = &dev
	case chipPCF8523:
		dev := pcf8523.New(bus)
		dev.Address = uint8(cfg.Address)
		lost, err := dev.LostPower()
		if err != nil {
			return nil, err
		}
		if lost {
			log.Warn().Msg("pcf8523 lost power, time is not valid until set")
		}
		a.clock = &dev
	default:
		return nil, fmt.Errorf("unsupported chip %q", cfg.Chip)
	}
	return a, nil
}

func (a *app) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"get"}
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
	return cmd.run(a, ctx, args[1:])
}

func (a *app) get(ctx context.Context, args []string) error {
	if a.ds != nil {
		dt, err := a.ds.ReadDateTime()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, dt)
		return nil
	}
	now, err := a.clock.Now()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, now.Format(time.RFC1123))
	return nil
}

func (a *app) setTime(ctx context.Context, args []string) error {
	if a.ds == nil {
		return errUnsupported
	}
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: " + commands["set-time"].usage)
	}
	parts := strings.Split(args[0], ":")
	if len(parts) != 3 {
		return fmt.Errorf("bad time %q", args[0])
	}
	var hms [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil || v >= ds1307.MinutesInHour {
			return fmt.Errorf("bad time %q", args[0])
		}
		hms[i] = uint8(v)
	}
	if len(args) == 1 {
		if hms[0] >= ds1307.HoursIn24h {
			return fmt.Errorf("bad hour %d", hms[0])
		}
		return a.ds.SetTime(hms[0], hms[1], hms[2])
	}
	var ampm ds1307.AmPm
	switch strings.ToLower(args[1]) {
	case "am":
		ampm = ds1307.AM
	case "pm":
		ampm = ds1307.PM
	default:
		return fmt.Errorf("expected am or pm, got %q", args[1])
	}
	if hms[0] < 1 || hms[0] > ds1307.HoursIn12h {
		return fmt.Errorf("bad hour %d", hms[0])
	}
	return a.ds.SetTime12(hms[0], hms[1], hms[2], ampm)
}

func parseDate(s string) (day uint8, month ds1307.Month, year uint16, err error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bad date %q", s)
	}
	if t.Year() < ds1307.MinYear || t.Year() > ds1307.MaxYear {
		return 0, 0, 0, fmt.Errorf("year %d outside %d-%d", t.Year(), ds1307.MinYear, ds1307.MaxYear)
	}
	return uint8(t.Day()), ds1307.Month(t.Month()), uint16(t.Year()), nil
}

func (a *app) setDate(ctx context.Context, args []string) error {
	if a.ds == nil {
		return errUnsupported
	}
	if len(args) != 1 {
		return errors.New("usage: " + commands["set-date"].usage)
	}
	day, month, year, err := parseDate(args[0])
	if err != nil {
		return err
	}
	return a.ds.SetDate(day, month, year)
}

func (a *app) setWeekDay(ctx context.Context, args []string) error {
	if a.ds == nil {
		return errUnsupported
	}
	if len(args) != 1 {
		return errors.New("usage: " + commands["set-weekday"].usage)
	}
	if v, err := strconv.ParseUint(args[0], 10, 8); err == nil && v >= 1 && v <= ds1307.DaysInWeek {
		return a.ds.SetWeekDay(ds1307.WeekDay(v))
	}
	for wd := ds1307.Sunday; wd <= ds1307.Saturday; wd++ {
		if strings.EqualFold(args[0], wd.String()) || strings.EqualFold(args[0], wd.Short()) {
			return a.ds.SetWeekDay(wd)
		}
	}
	return fmt.Errorf("bad weekday %q", args[0])
}

func (a *app) setNow(ctx context.Context, args []string) error {
	now := time.Now().UTC()
	if err := a.clock.Set(now); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "set to", now.Format(time.RFC1123))
	return nil
}

func (a *app) days(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + commands["days"].usage)
	}
	t, err := time.Parse("2006-01", args[0])
	if err != nil {
		return fmt.Errorf("bad month %q", args[0])
	}
	fmt.Fprintln(a.out, ds1307.DaysInMonth(ds1307.Month(t.Month()), uint16(t.Year())))
	return nil
}

func (a *app) weekday(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + commands["weekday"].usage)
	}
	t, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("bad date %q", args[0])
	}
	fmt.Fprintln(a.out, ds1307.DayOfWeek(uint8(t.Day()), ds1307.Month(t.Month()), uint16(t.Year())))
	return nil
}

func (a *app) sync(ctx context.Context, args []string) error {
	server := a.cfg.NTPServer
	if len(args) > 0 {
		server = args[0]
	}
	t, err := ntp.Sync(ctx, a.clock, server, a.cfg.NTPTimeout)
	if err != nil {
		return err
	}
	a.log.Info().Str("server", server).Time("time", t).Msg("clock synchronised")
	fmt.Fprintln(a.out, "set to", t.Format(time.RFC1123))
	return nil
}

func (a *app) publish(ctx context.Context, args []string) error {
	p, err := a.connect(a.cfg.MQTT)
	if err != nil {
		return err
	}
	defer p.Close()
	a.log.Info().Str("broker", a.cfg.MQTT.Broker).Dur("interval", a.cfg.MQTT.Interval).Msg("publishing")
	return telemetry.Run(ctx, p, a.clock, a.cfg.Chip, a.cfg.MQTT.Interval, a.log)
}

func (a *app) help(ctx context.Context, args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(a.out, "  "+commands[name].usage)
	}
	fmt.Fprintln(a.out, "  shell")
	return nil
}
