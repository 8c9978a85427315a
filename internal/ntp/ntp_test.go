package ntp

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

// ntpEpochOffset is the number of seconds between 1900 and 1970.
const ntpEpochOffset = 2208988800

func ntpTime(t time.Time) uint64 {
	sec := uint64(t.Unix() + ntpEpochOffset)
	frac := uint64(t.Nanosecond()) << 32 / 1e9
	return sec<<32 | frac
}

// serve answers NTP requests as a stratum 1 server whose clock runs skew
// ahead of the local one.
func serve(c *qt.C, skew time.Duration) string {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { conn.Close() })

	go func() {
		req := make([]byte, 48)
		for {
			n, addr, err := conn.ReadFrom(req)
			if err != nil {
				return
			}
			if n < 48 {
				continue
			}
			now := time.Now().Add(skew)
			resp := make([]byte, 48)
			resp[0] = 4<<3 | 4 // version 4, server mode
			resp[1] = 1        // stratum
			resp[2] = 6
			resp[3] = 0xEC
			copy(resp[12:16], "GPS\x00")
			binary.BigEndian.PutUint64(resp[16:], ntpTime(now.Add(-time.Second)))
			copy(resp[24:32], req[40:48])
			binary.BigEndian.PutUint64(resp[32:], ntpTime(now))
			binary.BigEndian.PutUint64(resp[40:], ntpTime(now))
			conn.WriteTo(resp, addr)
		}
	}()
	return conn.LocalAddr().String()
}

type fakeClock struct {
	set time.Time
	err error
}

func (f *fakeClock) Set(t time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.set = t
	return nil
}

func TestQueryOffset(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, time.Hour)

	offset, err := Query(context.Background(), addr, time.Second)
	c.Assert(err, qt.IsNil)
	c.Assert(offset > 59*time.Minute && offset < 61*time.Minute, qt.IsTrue, qt.Commentf("offset %v", offset))
}

func TestSync(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, -2*time.Hour)
	clock := &fakeClock{}

	got, err := Sync(context.Background(), clock, addr, time.Second)
	c.Assert(err, qt.IsNil)
	c.Assert(clock.set, qt.Equals, got)
	diff := time.Until(got) + 2*time.Hour
	c.Assert(diff < time.Minute && diff > -time.Minute, qt.IsTrue, qt.Commentf("diff %v", diff))
}

func TestSyncClockError(t *testing.T) {
	c := qt.New(t)
	addr := serve(c, 0)
	nak := errors.New("nak")

	_, err := Sync(context.Background(), &fakeClock{err: nak}, addr, time.Second)
	c.Assert(err, qt.ErrorIs, nak)
}

func TestQueryCancelled(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Query(ctx, "127.0.0.1:1", time.Second)
	c.Assert(err, qt.ErrorIs, context.Canceled)
}
