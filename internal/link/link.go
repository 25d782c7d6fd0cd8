// Package link watches the network interfaces and keeps the
// network-joined health bit current.
package link

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/health"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/clock"
)

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = 5 * time.Second

// Probe reports whether the link is up.
type Probe func() (bool, error)

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
	Interval time.Duration
	Clock    clock.Clock

	// OnJoin runs on the first transition to up.
	OnJoin func()

	Logger Logger
}

// Watcher polls a Probe and mirrors it into the tracker.
type Watcher struct {
	probe    Probe
	tracker  *health.Tracker
	interval time.Duration
	clock    clock.Clock
	onJoin   func()
	logger   Logger

	joinOnce sync.Once
	up       bool
}

// NewWatcher creates a Watcher.
func NewWatcher(probe Probe, tracker *health.Tracker, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Watcher{
		probe:    probe,
		tracker:  tracker,
		interval: opts.Interval,
		clock:    opts.Clock,
		onJoin:   opts.OnJoin,
		logger:   opts.Logger,
	}
}

// Run polls until ctx is cancelled. The first check is immediate.
func (w *Watcher) Run(ctx context.Context) {
	for {
		w.check()
		select {
		case <-ctx.Done():
			return
		case <-w.clock.After(w.interval):
		}
	}
}

func (w *Watcher) check() {
	up, err := w.probe()
	if err != nil {
		w.logger.Warn("link check failed", "error", err)
		up = false
	}
	if up == w.up {
		return
	}
	w.up = up

	if !up {
		w.tracker.Clear(health.NetworkJoined)
		w.logger.Warn("network link lost")
		return
	}
	w.tracker.Mark(health.NetworkJoined)
	w.logger.Info("network link up")
	w.joinOnce.Do(func() {
		if w.onJoin != nil {
			w.onJoin()
		}
	})
}

// InterfaceProbe returns a Probe that reports up when an interface is
// up, not loopback, and has a global unicast address. A non-empty name
// restricts the check to that interface.
func InterfaceProbe(name string) Probe {
	return func() (bool, error) {
		ifaces, err := net.Interfaces()
		if err != nil {
			return false, fmt.Errorf("listing interfaces: %w", err)
		}
		for _, iface := range ifaces {
			if name != "" && iface.Name != name {
				continue
			}
			if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
				continue
			}
			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}
			for _, a := range addrs {
				if ipn, ok := a.(*net.IPNet); ok && ipn.IP.IsGlobalUnicast() {
					return true, nil
				}
			}
		}
		return false, nil
	}
}
