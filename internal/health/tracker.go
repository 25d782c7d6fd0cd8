package health

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Flag is one readiness signal.
type Flag uint32

const (
	NetworkJoined Flag = 1 << iota
	BrokerConnected
	TimeSynchronized
	SensorDataSeen

	// All is the set of every flag.
	All = NetworkJoined | BrokerConnected | TimeSynchronized | SensorDataSeen
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{NetworkJoined, "network"},
	{BrokerConnected, "broker"},
	{TimeSynchronized, "clock"},
	{SensorDataSeen, "sensor"},
}

// String lists the set flags, e.g. "network|broker".
func (f Flag) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// clearable are the flags a transport may withdraw on disconnect.
const clearable = NetworkJoined | BrokerConnected

// Tracker accumulates health flags and the statistics baseline.
//
// Thread Safety:
//   - Mark, Clear and Has may be called from any goroutine.
type Tracker struct {
	flags atomic.Uint32

	baselineMu sync.RWMutex
	baseline   time.Time
}

// NewTracker returns a tracker with no flags set and no baseline.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Mark sets f. Marking an already set flag is a no-op.
func (t *Tracker) Mark(f Flag) {
	t.flags.Or(uint32(f & All))
}

// Clear withdraws f. Only NetworkJoined and BrokerConnected can be cleared;
// other bits in f are ignored.
func (t *Tracker) Clear(f Flag) {
	t.flags.And(^uint32(f & clearable))
}

// Has reports whether every flag in f is set.
func (t *Tracker) Has(f Flag) bool {
	return Flag(t.flags.Load())&f == f
}

// Flags returns the currently set flags.
func (t *Tracker) Flags() Flag {
	return Flag(t.flags.Load())
}

// AllHealthy reports whether every flag is set.
func (t *Tracker) AllHealthy() bool {
	return t.Has(All)
}

// SetBaseline records ts as the baseline if none is set yet and reports
// whether it did.
func (t *Tracker) SetBaseline(ts time.Time) bool {
	t.baselineMu.Lock()
	defer t.baselineMu.Unlock()
	if !t.baseline.IsZero() {
		return false
	}
	t.baseline = ts
	return true
}

// Baseline returns the first trusted wall-clock time, or the zero time.
func (t *Tracker) Baseline() time.Time {
	t.baselineMu.RLock()
	defer t.baselineMu.RUnlock()
	return t.baseline
}

// UptimeSinceBaseline returns now minus the baseline, or zero when no
// baseline is set.
func (t *Tracker) UptimeSinceBaseline(now time.Time) time.Duration {
	b := t.Baseline()
	if b.IsZero() {
		return 0
	}
	return now.Sub(b)
}
