package ds1307

import (
	"bytes"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"

	"github.com/ajanata/drivers/i2cseq"
	"github.com/ajanata/drivers/tester"
)

// registerFile is the size of the DS1307 address space, clock plus RAM.
const registerFile = 64

func newDevice(c *qt.C) (*Device, *tester.I2CDevice) {
	bus := tester.NewI2CBus(c)
	fake := bus.NewDevice(Address, registerFile)
	dev := New(bus)
	return &dev, fake
}

func clockRegisters(fake *tester.I2CDevice) []byte {
	return append([]byte(nil), fake.Registers[:7]...)
}

func TestConfigureNoDevice(t *testing.T) {
	c := qt.New(t)
	dev := New(tester.NewI2CBus(c))

	_, err := dev.Configure(Config{})
	c.Assert(err, qt.ErrorIs, ErrDeviceUnavailable)
}

func TestConfigureResetsZeroedClock(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)

	dt, err := dev.Configure(Config{})
	c.Assert(err, qt.IsNil)
	// the snapshot is what was read, not the defaults
	c.Assert(dt.Date.Day, qt.Equals, uint8(0))
	c.Assert(clockRegisters(fake), qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0x00})

	again, err := dev.ReadDateTime()
	c.Assert(err, qt.IsNil)
	c.Assert(again, qt.DeepEquals, DefaultDateTime())
}

func TestConfigureValidity(t *testing.T) {
	tests := []struct {
		name  string
		regs  []byte
		reset bool
	}{
		{"valid", []byte{0x30, 0x10, 0x08, 0x02, 0x15, 0x06, 0x20}, false},
		{"seconds 75", []byte{0x75, 0x10, 0x08, 0x02, 0x15, 0x06, 0x20}, true},
		{"halted", []byte{0x80, 0x10, 0x08, 0x02, 0x15, 0x06, 0x20}, true},
		{"day 0", []byte{0x30, 0x10, 0x08, 0x02, 0x00, 0x06, 0x20}, true},
		{"month 0", []byte{0x30, 0x10, 0x08, 0x02, 0x15, 0x00, 0x20}, true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			dev, fake := newDevice(c)
			copy(fake.Registers, test.regs)

			_, err := dev.Configure(Config{})
			c.Assert(err, qt.IsNil)
			if test.reset {
				c.Assert(fake.Writes, qt.HasLen, 2)
				c.Assert(clockRegisters(fake), qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0x00})
			} else {
				c.Assert(fake.Writes, qt.HasLen, 0)
				c.Assert(clockRegisters(fake), qt.DeepEquals, test.regs)
			}
		})
	}
}

func TestConfigureReturnsReadValue(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)
	copy(fake.Registers, []byte{0x30, 0x10, 0x68, 0x02, 0x15, 0x06, 0x20})

	dt, err := dev.Configure(Config{})
	c.Assert(err, qt.IsNil)
	c.Assert(dt, qt.DeepEquals, DateTime{
		Date: Date{Day: 15, Month: June, Year: 2020, WeekDay: Monday},
		Time: Time{Hours: 8, Minutes: 10, Seconds: 30, Format: Format12, AmPm: PM},
	})
	c.Assert(dt.String(), qt.Equals, "Mon 2020-06-15 08:10:30 PM")
}

func TestConfigureLogsReset(t *testing.T) {
	c := qt.New(t)
	dev, _ := newDevice(c)
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	_, err := dev.Configure(Config{Logger: &log})
	c.Assert(err, qt.IsNil)
	c.Assert(buf.String(), qt.Contains, "stored date/time invalid")
}

func TestConfigureReadFailure(t *testing.T) {
	c := qt.New(t)
	fake := tester.NewI2CBus(c)
	fake.NewDevice(Address, registerFile)
	ctl := tester.NewController(fake)
	ctl.Fail = func(op string) error {
		if op == "start-read" {
			return errors.New("arbitration lost")
		}
		return nil
	}
	dev := New(i2cseq.New(ctl, i2cseq.Config{Timeout: i2cseq.DefaultTimeout}))

	_, err := dev.Configure(Config{})
	c.Assert(err, qt.ErrorIs, ErrTransactionFailed)
	c.Assert(err, qt.Not(qt.ErrorIs), ErrDeviceUnavailable)
}

func TestConfigureOverSequencedBus(t *testing.T) {
	c := qt.New(t)
	fake := tester.NewI2CBus(c)
	regs := fake.NewDevice(Address, registerFile)
	ctl := tester.NewController(fake)
	dev := New(i2cseq.New(ctl, i2cseq.Config{Timeout: i2cseq.DefaultTimeout}))

	_, err := dev.Configure(Config{})
	c.Assert(err, qt.IsNil)
	c.Assert(clockRegisters(regs), qt.DeepEquals, []byte{0x00, 0x00, 0x00, 0x01, 0x01, 0x01, 0x00})

	dt, err := dev.ReadDateTime()
	c.Assert(err, qt.IsNil)
	c.Assert(dt, qt.DeepEquals, DefaultDateTime())
}

func TestSetTime(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)

	c.Assert(dev.SetTime(23, 45, 7), qt.IsNil)
	c.Assert(fake.Writes[0], qt.DeepEquals, []byte{TimeStart, 0x07, 0x45, 0x23})

	c.Assert(dev.SetTime12(1, 2, 3, PM), qt.IsNil)
	c.Assert(fake.Writes[1], qt.DeepEquals, []byte{TimeStart, 0x03, 0x02, 0x61})

	tm, err := dev.ReadTime()
	c.Assert(err, qt.IsNil)
	c.Assert(tm, qt.DeepEquals, Time{Hours: 1, Minutes: 2, Seconds: 3, Format: Format12, AmPm: PM})
	c.Assert(tm.Hours24(), qt.Equals, 13)
}

func TestSetDate(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)

	c.Assert(dev.SetDate(29, February, 2024), qt.IsNil)
	c.Assert(fake.Writes[0], qt.DeepEquals, []byte{DateStart, byte(Thursday), 0x29, 0x02, 0x24})

	date, err := dev.ReadDate()
	c.Assert(err, qt.IsNil)
	c.Assert(date, qt.DeepEquals, Date{Day: 29, Month: February, Year: 2024, WeekDay: Thursday})
}

func TestSingleFieldSetters(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		name string
		set  func(d *Device) error
		want []byte
	}{
		{"hours24", func(d *Device) error { return d.SetHours24(21) }, []byte{RegHours, 0x21}},
		{"hours12", func(d *Device) error { return d.SetHours12(12, AM) }, []byte{RegHours, 0x52}},
		{"minutes", func(d *Device) error { return d.SetMinutes(59) }, []byte{RegMinutes, 0x59}},
		{"seconds", func(d *Device) error { return d.SetSeconds(42) }, []byte{RegSeconds, 0x42}},
		{"day", func(d *Device) error { return d.SetDay(31) }, []byte{RegDay, 0x31}},
		{"month", func(d *Device) error { return d.SetMonth(December) }, []byte{RegMonth, 0x12}},
		{"year", func(d *Device) error { return d.SetYear(2042) }, []byte{RegYear, 0x42}},
		{"weekday", func(d *Device) error { return d.SetWeekDay(Friday) }, []byte{RegWeekDay, 0x06}},
		{"weekday by date", func(d *Device) error { return d.SetWeekDayByDate(1, January, 2000) }, []byte{RegWeekDay, 0x07}},
	}
	for _, test := range tests {
		dev, fake := newDevice(c)
		c.Assert(test.set(dev), qt.IsNil, qt.Commentf("%s", test.name))
		c.Assert(fake.Writes, qt.DeepEquals, [][]byte{test.want}, qt.Commentf("%s", test.name))
	}
}

func TestWritesAreIdempotent(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)

	for i := 0; i < 2; i++ {
		c.Assert(dev.SetTime(12, 30, 15), qt.IsNil)
		c.Assert(dev.SetDate(19, October, 2026), qt.IsNil)
	}
	c.Assert(fake.Writes, qt.HasLen, 4)
	c.Assert(fake.Writes[2], qt.DeepEquals, fake.Writes[0])
	c.Assert(fake.Writes[3], qt.DeepEquals, fake.Writes[1])
	c.Assert(clockRegisters(fake), qt.DeepEquals, []byte{0x15, 0x30, 0x12, byte(Monday), 0x19, 0x10, 0x26})
}

func TestReadPassesMalformedValues(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)
	copy(fake.Registers, []byte{0x30, 0x7B, 0x08})

	tm, err := dev.ReadTime()
	c.Assert(err, qt.IsNil)
	c.Assert(tm.Minutes, qt.Equals, uint8(81))
}

func TestTransactionFailure(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)
	fake.Registers[RegMinutes] = 0x12
	nak := errors.New("nak")
	fake.Err = nak

	err := dev.SetMinutes(30)
	c.Assert(err, qt.ErrorIs, ErrTransactionFailed)
	c.Assert(err, qt.ErrorIs, nak)
	var be *BusError
	c.Assert(errors.As(err, &be), qt.IsTrue)
	c.Assert(be.Op, qt.Equals, "write")
	c.Assert(be.Register, qt.Equals, uint8(RegMinutes))
	c.Assert(fake.Registers[RegMinutes], qt.Equals, byte(0x12))

	_, err = dev.ReadDateTime()
	c.Assert(err, qt.ErrorIs, ErrTransactionFailed)
	c.Assert(err, qt.ErrorMatches, `ds1307: read register 0x03: nak`)
}

func TestSetAndNow(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)
	want := time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC)

	c.Assert(dev.Set(want), qt.IsNil)
	c.Assert(fake.Writes[0], qt.DeepEquals, []byte{TimeStart, 0x05, 0x04, 0x15, byte(Monday), 0x02, 0x01, 0x06})

	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got.Equal(want), qt.IsTrue, qt.Commentf("got %v", got))
}

// rolloverBus replaces the clock registers with next after every
// transaction, as if the chip ticked between two reads.
type rolloverBus struct {
	*tester.I2CBus
	fake *tester.I2CDevice
	next []byte
	txs  int
}

func (b *rolloverBus) Tx(addr uint16, w, r []byte) error {
	err := b.I2CBus.Tx(addr, w, r)
	b.txs++
	copy(b.fake.Registers, b.next)
	return err
}

func TestNowAcrossMidnight(t *testing.T) {
	c := qt.New(t)
	fakeBus := tester.NewI2CBus(c)
	fake := fakeBus.NewDevice(Address, registerFile)
	// Sunday 2021-07-04 23:59:59, then Monday 2021-07-05 00:00:00
	copy(fake.Registers, []byte{0x59, 0x59, 0x23, 0x01, 0x04, 0x07, 0x21})
	bus := &rolloverBus{
		I2CBus: fakeBus,
		fake:   fake,
		next:   []byte{0x00, 0x00, 0x00, 0x02, 0x05, 0x07, 0x21},
	}
	dev := New(bus)

	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, time.Date(2021, time.July, 4, 23, 59, 59, 0, time.UTC))
	c.Assert(bus.txs, qt.Equals, 1)

	got, err = dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, time.Date(2021, time.July, 5, 0, 0, 0, 0, time.UTC))
}

func TestNowFrom12HourClock(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice(c)
	// 12:15:00 AM on 2021-07-04
	copy(fake.Registers, []byte{0x00, 0x15, 0x52, 0x01, 0x04, 0x07, 0x21})

	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, time.Date(2021, time.July, 4, 0, 15, 0, 0, time.UTC))
}

func TestFromTime(t *testing.T) {
	c := qt.New(t)
	dt := FromTime(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(dt.Date.WeekDay, qt.Equals, Saturday)
	c.Assert(dt.Date.WeekDay, qt.Equals, DayOfWeek(1, January, 2000))
}
