package tester

import (
	"fmt"

	"github.com/ajanata/drivers/i2cseq"
)

// Controller is a fake i2cseq.Controller driving the devices of an I2CBus
// one primitive at a time.
type Controller struct {
	bus *I2CBus

	// Fail, when set, is called before every primitive with its name
	// ("ready", "start-write", "start-read", "write", "read-ack",
	// "read-nack", "stop"). A non-nil result fails the primitive.
	Fail func(op string) error
	// Trace lists the primitives executed so far.
	Trace []string

	dev     *I2CDevice
	dir     i2cseq.Direction
	written []byte
	nacked  bool
}

func NewController(bus *I2CBus) *Controller {
	return &Controller{bus: bus}
}

func (c *Controller) op(name string) error {
	c.Trace = append(c.Trace, name)
	if c.Fail != nil {
		return c.Fail(name)
	}
	return nil
}

func (c *Controller) Ready(addr uint16) error {
	if err := c.op("ready"); err != nil {
		return err
	}
	return c.bus.Probe(addr)
}

func (c *Controller) Start(addr uint16, dir i2cseq.Direction) error {
	if err := c.op("start-" + dir.String()); err != nil {
		return err
	}
	d, err := c.bus.device(addr)
	if err != nil {
		return err
	}
	if c.dev != nil && c.dev != d {
		c.flush()
	}
	c.dev = d
	c.dir = dir
	c.nacked = false
	return nil
}

func (c *Controller) WriteByte(b byte) error {
	if err := c.op("write"); err != nil {
		return err
	}
	if c.dev == nil || c.dir != i2cseq.Write {
		return ErrNotStarted
	}
	if len(c.written) == 0 {
		c.dev.setPointer(b)
	} else {
		c.dev.store(b)
	}
	c.written = append(c.written, b)
	return nil
}

func (c *Controller) ReadByte(ack bool) (byte, error) {
	name := "read-nack"
	if ack {
		name = "read-ack"
	}
	if err := c.op(name); err != nil {
		return 0, err
	}
	if c.dev == nil || c.dir != i2cseq.Read {
		return 0, ErrNotStarted
	}
	if c.nacked {
		return 0, ErrReadAfterNack
	}
	c.nacked = !ack
	return c.dev.load(), nil
}

func (c *Controller) Stop() error {
	err := c.op("stop")
	c.flush()
	return err
}

func (c *Controller) flush() {
	if c.dev != nil {
		c.dev.record(c.written)
	}
	c.dev = nil
	c.written = nil
	c.nacked = false
}

// String returns the trace, mainly for test failure messages.
func (c *Controller) String() string {
	return fmt.Sprint(c.Trace)
}
