package sensorbus

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/settings"
)

// DefaultMaxSensors is the table capacity.
const DefaultMaxSensors = 10

// DefaultInterval is the poll period when none is configured.
const DefaultInterval = time.Minute

// Result is one sensor read.
type Result struct {
	Celsius float64
	Err     error
}

// Probe is a sensor bus driver.
type Probe interface {
	// Scan returns the address of every sensor, in bus order.
	Scan() ([]string, error)

	// ReadAll reads every sensor found by the last Scan, in the same order.
	ReadAll() []Result
}

// Sensor is one table entry.
type Sensor struct {
	Address string
	Name    string
}

// Logger is the logging surface Bus needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Options configures a Bus.
type Options struct {
	// Interval is the poll period. Default: DefaultInterval.
	Interval time.Duration

	// MaxSensors caps the table. Default: DefaultMaxSensors.
	MaxSensors int

	Logger Logger
}

// Bus owns the sensor table and the poll loop.
type Bus struct {
	probe    Probe
	poster   event.Poster
	interval time.Duration
	max      int
	logger   Logger

	mu      sync.RWMutex
	sensors []Sensor

	// readMu serialises probe access between Run and Scan.
	readMu  sync.Mutex
	trigger chan struct{}
}

// New creates a Bus. Call Scan before Run.
func New(probe Probe, poster event.Poster, opts Options) *Bus {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxSensors <= 0 {
		opts.MaxSensors = DefaultMaxSensors
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Bus{
		probe:    probe,
		poster:   poster,
		interval: opts.Interval,
		max:      opts.MaxSensors,
		logger:   opts.Logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Scan discovers sensors and rebuilds the table. Sensors beyond the cap are
// ignored. restore, when non-nil, supplies persisted friendly names.
func (b *Bus) Scan(restore func(addr string) (string, bool)) error {
	b.readMu.Lock()
	addrs, err := b.probe.Scan()
	b.readMu.Unlock()
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		b.setSensors(nil)
		return ErrNoSensors
	}
	if len(addrs) > b.max {
		b.logger.Warn("more sensors than table slots, ignoring extras", "found", len(addrs), "max", b.max)
		addrs = addrs[:b.max]
	}

	table := make([]Sensor, len(addrs))
	for i, a := range addrs {
		table[i] = Sensor{Address: a}
		if restore != nil {
			if name, ok := restore(a); ok {
				table[i].Name = settings.Truncate(name, settings.MaxNameLen)
			}
		}
	}
	b.setSensors(table)
	b.logger.Info("sensor bus scanned", "sensors", len(table))
	return nil
}

func (b *Bus) setSensors(s []Sensor) {
	b.mu.Lock()
	b.sensors = s
	b.mu.Unlock()
}

// Sensors returns a copy of the table.
func (b *Bus) Sensors() []Sensor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Sensor, len(b.sensors))
	copy(out, b.sensors)
	return out
}

// Count returns the number of table entries.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sensors)
}

// At returns the entry at bus position index.
func (b *Bus) At(index int) (Sensor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.sensors) {
		return Sensor{}, false
	}
	return b.sensors[index], true
}

// AliasOf returns the friendly name at index, if one is set.
func (b *Bus) AliasOf(index int) (string, bool) {
	s, ok := b.At(index)
	if !ok || s.Name == "" {
		return "", false
	}
	return s.Name, true
}

// SetAlias names the sensor at addr and reports whether the name changed.
// Unknown addresses report false.
func (b *Bus) SetAlias(addr, name string) bool {
	name = settings.Truncate(name, settings.MaxNameLen)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.sensors {
		if b.sensors[i].Address != addr {
			continue
		}
		if b.sensors[i].Name == name {
			return false
		}
		b.sensors[i].Name = name
		return true
	}
	return false
}

// ReadNow asks the poll loop for an immediate read of every sensor.
// Repeated calls before the loop wakes collapse into one read.
func (b *Bus) ReadNow() {
	select {
	case b.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. The first read happens immediately.
func (b *Bus) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.readAll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.readAll()
		case <-b.trigger:
			b.readAll()
		}
	}
}

// readAll reads every sensor and posts one event per table entry.
func (b *Bus) readAll() {
	n := b.Count()
	if n == 0 {
		return
	}

	b.readMu.Lock()
	results := b.probe.ReadAll()
	b.readMu.Unlock()

	for i := 0; i < n && i < len(results); i++ {
		m := event.Temperature(i, results[i].Celsius)
		if results[i].Err != nil {
			m = event.TemperatureError(i, results[i].Err)
		}
		if !b.poster.Post(m) {
			b.logger.Warn("event queue full, dropping reading", "sensor", i)
		}
	}
}
