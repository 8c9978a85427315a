// Package ds1307 implements a driver for the DS1307 battery-backed Real-Time
// Clock (RTC). Time and date are kept in seven BCD registers which are read
// and written in bursts using the chip's auto-incrementing register pointer.
// The square wave output and the 56 bytes of battery-backed RAM are not
// supported.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS1307.pdf
package ds1307

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajanata/drivers"
	"github.com/ajanata/drivers/bcd"
)

type Device struct {
	bus     drivers.I2C
	Address uint16
	log     zerolog.Logger
}

type Config struct {
	// Address defaults to Address when zero.
	Address uint16
	// Logger receives transaction traces at debug level. Nil disables logging.
	Logger *zerolog.Logger
}

// New creates a new DS1307 driver on the given preconfigured I2C bus. The
// chip supports bus speeds up to 100 kHz.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
		log:     zerolog.Nop(),
	}
}

// Configure checks that the device answers and reads its current date and
// time. A clock that has never been set (or lost its battery) reports out of
// range values; in that case DefaultDateTime is written as is, which also
// starts the oscillator. The returned DateTime is what was read before
// any such reset.
func (d *Device) Configure(cfg Config) (DateTime, error) {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	if cfg.Logger != nil {
		d.log = cfg.Logger.With().Str("device", "ds1307").Logger()
	}

	if err := d.probe(); err != nil {
		return DateTime{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	dt, err := d.ReadDateTime()
	if err != nil {
		return DateTime{}, err
	}

	if needsReset(dt) {
		d.log.Warn().Stringer("read", dt).Msg("stored date/time invalid, writing defaults")
		def := DefaultDateTime()
		if err := d.SetTime(def.Time.Hours, def.Time.Minutes, def.Time.Seconds); err != nil {
			return DateTime{}, err
		}
		if err := d.writeDate(def.Date); err != nil {
			return DateTime{}, err
		}
	}
	return dt, nil
}

// needsReset reports whether a value read from the device shows an unset
// clock. A halted oscillator sets bit 7 of the seconds register, which also
// lands here.
func needsReset(dt DateTime) bool {
	return dt.Time.Seconds > SecondsInMinute-1 || dt.Date.Day < 1 || dt.Date.Month < January
}

func (d *Device) probe() error {
	if p, ok := d.bus.(drivers.Prober); ok {
		return p.Probe(d.Address)
	}
	var buf [1]byte
	return d.bus.Tx(d.Address, nil, buf[:])
}

// SetTime sets the time in 24 hour format.
func (d *Device) SetTime(hours, minutes, seconds uint8) error {
	return d.write(TimeStart, bcd.Encode(seconds), bcd.Encode(minutes), encodeHours24(hours))
}

// SetTime12 sets the time in 12 hour format.
func (d *Device) SetTime12(hours, minutes, seconds uint8, ampm AmPm) error {
	return d.write(TimeStart, bcd.Encode(seconds), bcd.Encode(minutes), encodeHours12(hours, ampm))
}

// SetDate sets the date. The weekday register is written with the weekday of
// the given date.
func (d *Device) SetDate(day uint8, month Month, year uint16) error {
	return d.writeDate(Date{Day: day, Month: month, Year: year, WeekDay: DayOfWeek(day, month, year)})
}

func (d *Device) writeDate(date Date) error {
	return d.write(DateStart, byte(date.WeekDay), bcd.Encode(date.Day), bcd.Encode(uint8(date.Month)), encodeYear(date.Year))
}

// SetHours24 sets only the hours register, switching the clock to 24 hour
// format.
func (d *Device) SetHours24(hours uint8) error {
	return d.write(RegHours, encodeHours24(hours))
}

// SetHours12 sets only the hours register, switching the clock to 12 hour
// format.
func (d *Device) SetHours12(hours uint8, ampm AmPm) error {
	return d.write(RegHours, encodeHours12(hours, ampm))
}

func (d *Device) SetMinutes(minutes uint8) error {
	return d.write(RegMinutes, bcd.Encode(minutes))
}

// SetSeconds sets the seconds register. This clears the clock halt bit.
func (d *Device) SetSeconds(seconds uint8) error {
	return d.write(RegSeconds, bcd.Encode(seconds))
}

func (d *Device) SetDay(day uint8) error {
	return d.write(RegDay, bcd.Encode(day))
}

func (d *Device) SetMonth(month Month) error {
	return d.write(RegMonth, bcd.Encode(uint8(month)))
}

func (d *Device) SetYear(year uint16) error {
	return d.write(RegYear, encodeYear(year))
}

// SetWeekDay writes the weekday register as is. The chip increments it at
// midnight but never checks it against the date.
func (d *Device) SetWeekDay(weekDay WeekDay) error {
	return d.write(RegWeekDay, byte(weekDay))
}

// SetWeekDayByDate writes the weekday of the given date.
func (d *Device) SetWeekDayByDate(day uint8, month Month, year uint16) error {
	return d.SetWeekDay(DayOfWeek(day, month, year))
}

// ReadTime reads seconds, minutes and hours in one transaction. Decoded
// values are not range checked.
func (d *Device) ReadTime() (Time, error) {
	var buf [timeLen]byte
	if err := d.read(TimeStart, buf[:]); err != nil {
		return Time{}, err
	}
	return decodeTime(buf[:]), nil
}

// ReadDate reads weekday, day, month and year in one transaction.
func (d *Device) ReadDate() (Date, error) {
	var buf [dateLen]byte
	if err := d.read(DateStart, buf[:]); err != nil {
		return Date{}, err
	}
	return decodeDate(buf[:]), nil
}

// decodeTime decodes the seconds, minutes and hours registers in that order.
func decodeTime(buf []byte) Time {
	t := Time{
		Seconds: bcd.Decode(buf[0]),
		Minutes: bcd.Decode(buf[1]),
	}
	t.Hours, t.Format, t.AmPm = decodeHours(buf[2])
	return t
}

// decodeDate decodes the weekday, day, month and year registers in that order.
func decodeDate(buf []byte) Date {
	return Date{
		WeekDay: WeekDay(buf[0]),
		Day:     bcd.Decode(buf[1]),
		Month:   Month(bcd.Decode(buf[2])),
		Year:    decodeYear(buf[3]),
	}
}

// ReadDateTime reads the date and then the time.
func (d *Device) ReadDateTime() (DateTime, error) {
	date, err := d.ReadDate()
	if err != nil {
		return DateTime{}, err
	}
	t, err := d.ReadTime()
	if err != nil {
		return DateTime{}, err
	}
	return DateTime{Date: date, Time: t}, nil
}

// Now returns the current time of the clock as a UTC time.Time. All seven
// registers are read in one burst, so a rollover between date and time
// cannot tear the result.
func (d *Device) Now() (time.Time, error) {
	var buf [timeLen + dateLen]byte
	if err := d.read(TimeStart, buf[:]); err != nil {
		return time.Time{}, err
	}
	dt := DateTime{
		Time: decodeTime(buf[:timeLen]),
		Date: decodeDate(buf[timeLen:]),
	}
	return dt.UTC(), nil
}

// Set writes all seven time and date registers in one transaction using 24
// hour format. Years outside 2000-2099 keep only their last two digits.
func (d *Device) Set(t time.Time) error {
	dt := FromTime(t.UTC())
	return d.write(TimeStart,
		bcd.Encode(dt.Time.Seconds),
		bcd.Encode(dt.Time.Minutes),
		encodeHours24(dt.Time.Hours),
		byte(dt.Date.WeekDay),
		bcd.Encode(dt.Date.Day),
		bcd.Encode(uint8(dt.Date.Month)),
		encodeYear(dt.Date.Year),
	)
}

func (d *Device) read(reg uint8, buf []byte) error {
	if err := d.bus.Tx(d.Address, []byte{reg}, buf); err != nil {
		d.log.Debug().Err(err).Uint8("reg", reg).Msg("read failed")
		return &BusError{Op: "read", Register: reg, Err: err}
	}
	d.log.Debug().Uint8("reg", reg).Hex("data", buf).Msg("read")
	return nil
}

func (d *Device) write(reg uint8, data ...byte) error {
	buf := make([]byte, 1+len(data))
	buf[0] = reg
	copy(buf[1:], data)
	if err := d.bus.Tx(d.Address, buf, nil); err != nil {
		d.log.Debug().Err(err).Uint8("reg", reg).Msg("write failed")
		return &BusError{Op: "write", Register: reg, Err: err}
	}
	d.log.Debug().Uint8("reg", reg).Hex("data", data).Msg("write")
	return nil
}
