// Package stats holds the device's operational counters.
//
// Counters are incremented from any goroutine and read as a Snapshot
// when the coordinator flushes statistics.
package stats

import (
	"sync/atomic"
	"time"
)

// Counters holds the statistics published on every flush.
type Counters struct {
	sends        atomic.Uint64
	connects     atomic.Uint64
	disconnects  atomic.Uint64
	sensorErrors atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters plus the queue figures
// and baseline supplied by the caller.
type Snapshot struct {
	Started       time.Time
	Uptime        time.Duration
	Sends         uint64
	Connects      uint64
	Disconnects   uint64
	SensorErrors  uint64
	QueueHighMark int
	QueueDropped  uint64
}

// QueueStats reports queue pressure.
type QueueStats interface {
	HighWater() int
	Dropped() uint64
}

// AddSend counts an outbound message or a forwarded state change.
func (c *Counters) AddSend() { c.sends.Add(1) }

// AddConnect counts a broker connection.
func (c *Counters) AddConnect() { c.connects.Add(1) }

// AddDisconnect counts a broker connection loss.
func (c *Counters) AddDisconnect() { c.disconnects.Add(1) }

// AddSensorError counts a failed sensor read.
func (c *Counters) AddSensorError() { c.sensorErrors.Add(1) }

// Connects returns the number of broker connections so far.
func (c *Counters) Connects() uint64 { return c.connects.Load() }

// Snapshot copies the counters.
//
// Parameters:
//   - started: the statistics baseline; zero when the clock is not yet trusted
//   - now: current wall-clock time
//   - q: queue pressure source, may be nil
func (c *Counters) Snapshot(started, now time.Time, q QueueStats) Snapshot {
	s := Snapshot{
		Started:      started,
		Sends:        c.sends.Load(),
		Connects:     c.connects.Load(),
		Disconnects:  c.disconnects.Load(),
		SensorErrors: c.sensorErrors.Load(),
	}
	if !started.IsZero() && now.After(started) {
		s.Uptime = now.Sub(started)
	}
	if q != nil {
		s.QueueHighMark = q.HighWater()
		s.QueueDropped = q.Dropped()
	}
	return s
}

// Fields returns the snapshot as named integers for telemetry sinks.
func (s Snapshot) Fields() map[string]int64 {
	return map[string]int64{
		"uptime":        int64(s.Uptime / time.Second),
		"sendcnt":       int64(s.Sends),        //nolint:gosec // counters stay far below MaxInt64
		"connectcnt":    int64(s.Connects),     //nolint:gosec // see above
		"disconnectcnt": int64(s.Disconnects),  //nolint:gosec // see above
		"sensorerrors":  int64(s.SensorErrors), //nolint:gosec // see above
		"maxqueue":      int64(s.QueueHighMark),
		"dropped":       int64(s.QueueDropped), //nolint:gosec // see above
	}
}
