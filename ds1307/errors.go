package ds1307

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable is returned by Configure when the device does not
	// answer at its address.
	ErrDeviceUnavailable = errors.New("ds1307: device unavailable")

	// ErrTransactionFailed matches every *BusError.
	ErrTransactionFailed = errors.New("ds1307: transaction failed")
)

// BusError describes a register transaction that did not complete. Nothing
// is retried; a failed write may or may not have reached the device.
type BusError struct {
	Op       string // "read" or "write"
	Register uint8  // first register of the transaction
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("ds1307: %s register 0x%02x: %v", e.Op, e.Register, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

func (e *BusError) Is(target error) bool { return target == ErrTransactionFailed }
