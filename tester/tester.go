// Package tester contains fakes for testing device drivers without hardware.
// I2CDevice emulates a register file with an auto-incrementing register
// pointer, which is how most I2C sensors and clocks behave. The same devices
// can be reached through I2CBus (a drivers.I2C) or through Controller (an
// i2cseq.Controller).
package tester

import (
	"errors"
	"fmt"
)

var (
	ErrNoDevice      = errors.New("tester: no device at address")
	ErrNotStarted    = errors.New("tester: no transaction in progress")
	ErrReadAfterNack = errors.New("tester: read after NACK")
)

// Failer is implemented by *testing.T and *quicktest.C.
type Failer interface {
	Helper()
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// I2CDevice is a fake device with a register file.
type I2CDevice struct {
	c    Failer
	Addr uint16
	// Registers is the register file. The pointer wraps to 0 after the last
	// register.
	Registers []byte
	// Err is returned by every transaction addressed to the device while set.
	Err error
	// Writes records every write transaction that carried data, register
	// pointer first.
	Writes [][]byte

	pointer int
}

// NewI2CDevice creates a device at addr with size zeroed registers.
func NewI2CDevice(c Failer, addr uint16, size int) *I2CDevice {
	if size <= 0 || size > 256 {
		c.Helper()
		c.Fatalf("invalid register file size %d", size)
	}
	return &I2CDevice{
		c:         c,
		Addr:      addr,
		Registers: make([]byte, size),
	}
}

func (d *I2CDevice) setPointer(reg byte) {
	if int(reg) >= len(d.Registers) {
		d.c.Helper()
		d.c.Errorf("device %#x: register %#x out of range", d.Addr, reg)
		reg = 0
	}
	d.pointer = int(reg)
}

func (d *I2CDevice) next() {
	d.pointer = (d.pointer + 1) % len(d.Registers)
}

func (d *I2CDevice) store(v byte) {
	d.Registers[d.pointer] = v
	d.next()
}

func (d *I2CDevice) load() byte {
	v := d.Registers[d.pointer]
	d.next()
	return v
}

func (d *I2CDevice) record(w []byte) {
	if len(w) > 1 {
		d.Writes = append(d.Writes, append([]byte(nil), w...))
	}
}

// I2CBus is a fake drivers.I2C.
type I2CBus struct {
	c       Failer
	devices map[uint16]*I2CDevice
}

func NewI2CBus(c Failer) *I2CBus {
	return &I2CBus{
		c:       c,
		devices: make(map[uint16]*I2CDevice),
	}
}

// AddDevice attaches d to the bus at d.Addr.
func (b *I2CBus) AddDevice(d *I2CDevice) {
	b.devices[d.Addr] = d
}

// NewDevice creates a device and attaches it to the bus.
func (b *I2CBus) NewDevice(addr uint16, size int) *I2CDevice {
	d := NewI2CDevice(b.c, addr, size)
	b.AddDevice(d)
	return d
}

func (b *I2CBus) device(addr uint16) (*I2CDevice, error) {
	d, ok := b.devices[addr]
	if !ok {
		return nil, fmt.Errorf("%w %#x", ErrNoDevice, addr)
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return d, nil
}

// Probe succeeds when a device without an injected error is attached at addr.
func (b *I2CBus) Probe(addr uint16) error {
	_, err := b.device(addr)
	return err
}

// Tx sets the register pointer from w[0], stores the rest of w and then
// reads r from the pointer on.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	d, err := b.device(addr)
	if err != nil {
		return err
	}
	if len(w) > 0 {
		d.setPointer(w[0])
		for _, v := range w[1:] {
			d.store(v)
		}
		d.record(w)
	}
	for i := range r {
		r[i] = d.load()
	}
	return nil
}

func (b *I2CBus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *I2CBus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}
