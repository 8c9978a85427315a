// Package i2cseq builds I2C transactions out of byte-level controller
// primitives (start, write byte, read byte with or without acknowledge,
// stop). It is meant for polled controllers and bit-banged buses that have
// no transaction support of their own, and turns them into a drivers.I2C.
package i2cseq

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds a whole transaction when Config.Timeout is zero.
const DefaultTimeout = 100 * time.Millisecond

var (
	ErrTimeout = errors.New("i2cseq: transaction timed out")
	ErrAddress = errors.New("i2cseq: address out of range")
)

// Direction of the transfer following a start condition.
type Direction uint8

const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

type AddressMode uint8

const (
	Addr7Bit AddressMode = iota
	Addr10Bit
)

func (m AddressMode) max() uint16 {
	if m == Addr10Bit {
		return 0x3FF
	}
	return 0x7F
}

// Controller is the byte-level interface of an I2C master.
type Controller interface {
	// Ready reports whether a device acknowledges its address.
	Ready(addr uint16) error
	// Start sends a start (or repeated start) condition and the address.
	Start(addr uint16, dir Direction) error
	WriteByte(b byte) error
	// ReadByte reads one byte and answers with ACK when ack is set, NACK
	// otherwise. A NACK tells the device no more bytes will be read.
	ReadByte(ack bool) (byte, error)
	Stop() error
}

type Config struct {
	Addressing AddressMode
	// Timeout bounds each transaction, DefaultTimeout when zero.
	Timeout time.Duration
}

// Bus serialises transactions on a Controller.
type Bus struct {
	mu      sync.Mutex
	c       Controller
	mode    AddressMode
	timeout time.Duration
	now     func() time.Time
}

// New creates a Bus over c.
func New(c Controller, cfg Config) *Bus {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Bus{
		c:       c,
		mode:    cfg.Addressing,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// Probe reports whether a device answers at addr.
func (b *Bus) Probe(addr uint16) error {
	if addr > b.mode.max() {
		return fmt.Errorf("%w: %#x", ErrAddress, addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.c.Ready(addr)
}

// Tx writes w and then reads into r within one transaction. If the device
// cannot be addressed nothing is transferred. Any later failure stops the
// bus before the error is returned.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > b.mode.max() {
		return fmt.Errorf("%w: %#x", ErrAddress, addr)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	deadline := b.now().Add(b.timeout)
	if err := b.c.Start(addr, Write); err != nil {
		return fmt.Errorf("i2cseq: start %#x: %w", addr, err)
	}
	if err := b.transfer(addr, w, r, deadline); err != nil {
		b.c.Stop()
		return err
	}
	return b.c.Stop()
}

func (b *Bus) transfer(addr uint16, w, r []byte, deadline time.Time) error {
	for i, v := range w {
		if b.now().After(deadline) {
			return ErrTimeout
		}
		if err := b.c.WriteByte(v); err != nil {
			return fmt.Errorf("i2cseq: write byte %d: %w", i, err)
		}
	}
	if len(r) == 0 {
		return nil
	}
	if err := b.c.Start(addr, Read); err != nil {
		return fmt.Errorf("i2cseq: restart %#x: %w", addr, err)
	}
	for i := range r {
		if b.now().After(deadline) {
			return ErrTimeout
		}
		v, err := b.c.ReadByte(i < len(r)-1)
		if err != nil {
			return fmt.Errorf("i2cseq: read byte %d: %w", i, err)
		}
		r[i] = v
	}
	return nil
}

func (b *Bus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *Bus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	w := make([]byte, 1+len(buf))
	w[0] = r
	copy(w[1:], buf)
	return b.Tx(uint16(addr), w, nil)
}
