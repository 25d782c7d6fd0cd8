// Package clock abstracts wall-clock reads and timeouts so the event loop,
// rollback gate and watchers can be driven deterministically in tests.
//
// Production code takes a Clock and is given Real(). Tests use Fake, whose
// time moves only when Set or Advance is called.
package clock

import "time"

// Clock is the subset of the time package the controller depends on.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
