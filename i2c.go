// Package drivers holds the bus contracts shared by the device drivers in
// this module. Each device lives in its own package and takes one of these
// interfaces, so the same driver runs against a Linux host bus, a byte-level
// controller or a test fake.
package drivers

// I2C represents an I2C bus. Tx performs a single transaction: the device is
// addressed for write and w is sent, then (if r is not empty) the device is
// re-addressed for read and len(r) bytes are read, the last one answered
// with a NACK before the stop condition.
type I2C interface {
	ReadRegister(addr uint8, r uint8, buf []byte) error
	WriteRegister(addr uint8, r uint8, buf []byte) error
	Tx(addr uint16, w, r []byte) error
}

// Prober is implemented by buses that can check whether a device answers at
// an address without transferring data.
type Prober interface {
	Probe(addr uint16) error
}
