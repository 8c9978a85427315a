// Package periphbus exposes a Linux I2C bus, as found on single board
// computers and USB bridges supported by periph.io, as a drivers.I2C.
package periphbus

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Bus wraps a periph.io I2C bus.
type Bus struct {
	bus    i2c.Bus
	closer i2c.BusCloser
}

// Open initialises the host drivers and opens the named bus ("" selects the
// first one, "/dev/i2c-1" or "1" select a specific bus). A non-zero freq
// sets the bus clock.
func Open(name string, freq physic.Frequency) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphbus: init host: %w", err)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periphbus: open %q: %w", name, err)
	}
	if freq != 0 {
		if err := bc.SetSpeed(freq); err != nil {
			bc.Close()
			return nil, fmt.Errorf("periphbus: set speed %s: %w", freq, err)
		}
	}
	return &Bus{bus: bc, closer: bc}, nil
}

// New wraps an already opened bus. Close is a no-op for buses passed here.
func New(bus i2c.Bus) *Bus {
	return &Bus{bus: bus}
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.bus.Tx(uint16(addr), []byte{r}, buf)
}

func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 1+len(buf))
	w[0] = r
	copy(w[1:], buf)
	return b.bus.Tx(uint16(addr), w, nil)
}

// Probe reads a single byte from addr. The Linux i2c-dev interface has no
// address-only transfer, so this is the cheapest way to see an acknowledge.
func (b *Bus) Probe(addr uint16) error {
	var buf [1]byte
	return b.bus.Tx(addr, nil, buf[:])
}

func (b *Bus) String() string {
	return b.bus.String()
}

func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
