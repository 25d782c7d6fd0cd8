// Package timesync decides when the wall clock can be trusted.
//
// The board has no battery-backed clock, so the time reads as early 1970
// until the system time client has run. Watcher polls until the clock
// passes a minimum plausible epoch, and until the time client's sync
// marker exists when one is configured, then marks the health bit once
// and runs the first-sync callback.
package timesync

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/health"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/clock"
)

// DefaultMinEpoch is 2022-04-15, earlier than any build of this software.
const DefaultMinEpoch int64 = 1650000000

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 2 * time.Second

// Plausible reports whether t is at or after minEpoch.
func Plausible(t time.Time, minEpoch int64) bool {
	return t.Unix() >= minEpoch
}

// Logger is the logging surface Watcher needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Options configures a Watcher.
type Options struct {
	MinEpoch   int64
	MarkerFile string
	Interval   time.Duration
	Clock      clock.Clock

	// OnSync runs once, after the health bit is set.
	OnSync func()

	Logger Logger
}

// Watcher waits for the first trustworthy clock reading.
type Watcher struct {
	tracker *health.Tracker
	opts    Options

	// stat is os.Stat, replaced in tests.
	stat func(string) (os.FileInfo, error)
}

// NewWatcher creates a Watcher.
func NewWatcher(tracker *health.Tracker, opts Options) *Watcher {
	if opts.MinEpoch <= 0 {
		opts.MinEpoch = DefaultMinEpoch
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Watcher{tracker: tracker, opts: opts, stat: os.Stat}
}

// Run polls until the clock is synchronised or ctx is cancelled.
// It returns true when synchronisation was observed.
func (w *Watcher) Run(ctx context.Context) bool {
	for {
		if w.synced() {
			w.tracker.Mark(health.TimeSynchronized)
			w.opts.Logger.Info("wall clock synchronised", "now", w.opts.Clock.Now().UTC())
			if w.opts.OnSync != nil {
				w.opts.OnSync()
			}
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-w.opts.Clock.After(w.opts.Interval):
		}
	}
}

func (w *Watcher) synced() bool {
	if !Plausible(w.opts.Clock.Now(), w.opts.MinEpoch) {
		return false
	}
	if w.opts.MarkerFile == "" {
		return true
	}
	_, err := w.stat(w.opts.MarkerFile)
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		w.opts.Logger.Warn("checking time sync marker failed", "path", w.opts.MarkerFile, "error", err)
	}
	return false
}
