// Package pcf8523 implements a driver for the PCF8523 Real-Time Clock (RTC), providing basic read-write of the current
// time only. The PCF8523 itself supports alarms, clock drift compensation, and timer interrupts, but those features
// remain unimplemented.
//
// Datasheet: https://www.nxp.com/docs/en/data-sheet/PCF8523.pdf
package pcf8523

import (
	"fmt"
	"time"

	"github.com/ajanata/drivers"
	"github.com/ajanata/drivers/bcd"
)

type Device struct {
	bus     drivers.I2C
	Address uint8
}

func New(i2c drivers.I2C) Device {
	return Device{
		bus:     i2c,
		Address: Address,
	}
}

// LostPower reports whether the oscillator stopped since the time was last set.
func (d *Device) LostPower() (bool, error) {
	v, err := d.readByte(Status)
	if err != nil {
		return false, err
	}
	return v&oscillatorStopped != 0, nil
}

// Initialized reports whether battery switch-over has been configured, which Set does.
func (d *Device) Initialized() (bool, error) {
	v, err := d.readByte(Control3)
	if err != nil {
		return false, err
	}
	return v&powerManagement != powerManagement, nil
}

func (d *Device) Set(t time.Time) error {
	ctrl, err := d.readByte(Control1)
	if err != nil {
		return err
	}
	// do not change cap_sel or second/alarm/correction interrupts
	// ensure RTC is running and 24-hour mode is selected
	ctrl &= 0b1000_0111
	if err := d.writeRegister(Control1, ctrl); err != nil {
		return err
	}

	t = t.UTC()
	err = d.writeRegister(Time,
		bcd.Encode(uint8(t.Second())),
		bcd.Encode(uint8(t.Minute())),
		bcd.Encode(uint8(t.Hour())),
		bcd.Encode(uint8(t.Day())),
		uint8(t.Weekday()),
		bcd.Encode(uint8(t.Month())),
		bcd.Encode(uint8(t.Year()-2000)),
	)
	if err != nil {
		return err
	}
	// turn on battery switchover mode, turn off battery-related interrupts
	return d.writeRegister(Control3, 0)
}

func (d *Device) Now() (time.Time, error) {
	buf := [7]byte{}
	if err := d.bus.ReadRegister(d.Address, Time, buf[:]); err != nil {
		return time.Time{}, fmt.Errorf("pcf8523: read time: %w", err)
	}

	seconds := bcd.Decode(buf[0] & 0x7F)
	minute := bcd.Decode(buf[1] & 0x7F)
	hour := bcd.Decode(buf[2] & 0x3F)
	day := bcd.Decode(buf[3] & 0x3F)
	// we don't need to read the weekday
	month := time.Month(bcd.Decode(buf[5] & 0x1F))
	year := int(bcd.Decode(buf[6])) + 2000

	return time.Date(year, month, int(day), int(hour), int(minute), int(seconds), 0, time.UTC), nil
}

func (d *Device) readByte(reg uint8) (byte, error) {
	buf := [1]byte{}
	if err := d.bus.ReadRegister(d.Address, reg, buf[:]); err != nil {
		return 0, fmt.Errorf("pcf8523: read register 0x%02x: %w", reg, err)
	}
	return buf[0], nil
}

func (d *Device) writeRegister(reg uint8, data ...byte) error {
	if err := d.bus.WriteRegister(d.Address, reg, data); err != nil {
		return fmt.Errorf("pcf8523: write register 0x%02x: %w", reg, err)
	}
	return nil
}
