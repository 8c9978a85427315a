// Package ntp sets a real-time clock from an NTP server.
package ntp

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultServer is used when no server is configured.
const DefaultServer = "pool.ntp.org"

// Clock is the part of an RTC driver needed to set it.
type Clock interface {
	Set(time.Time) error
}

// Query asks server for the offset of the local system clock. The response
// is validated before the offset is returned.
func Query(ctx context.Context, server string, timeout time.Duration) (time.Duration, error) {
	if server == "" {
		server = DefaultServer
	}
	if d, ok := ctx.Deadline(); ok && time.Until(d) < timeout {
		timeout = time.Until(d)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, fmt.Errorf("ntp: query %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("ntp: invalid response from %s: %w", server, err)
	}
	return resp.ClockOffset, nil
}

// Sync sets clock to the server's time and returns the time written.
func Sync(ctx context.Context, clock Clock, server string, timeout time.Duration) (time.Time, error) {
	offset, err := Query(ctx, server, timeout)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now().Add(offset).UTC()
	if err := clock.Set(now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}
