// Package inputs watches GPIO pins and posts their level changes as
// digital-state events.
package inputs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
)

// edgeTimeout bounds each WaitForEdge so cancellation is noticed.
const edgeTimeout = 500 * time.Millisecond

// Input is one watched pin.
type Input struct {
	Pin     gpio.PinIn
	Channel int
	PullUp  bool
}

// Logger is the logging surface Watcher needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// Watcher posts a State event for every level change on its inputs.
type Watcher struct {
	inputs []Input
	poster event.Poster
	logger Logger
}

// Resolve looks up a pin by its periph name. host.Init must have run.
func Resolve(name string) (gpio.PinIn, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown gpio pin %q", name)
	}
	return p, nil
}

// NewWatcher creates a Watcher. logger may be nil.
func NewWatcher(inputs []Input, poster event.Poster, logger Logger) *Watcher {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Watcher{inputs: inputs, poster: poster, logger: logger}
}

// Run configures every pin for edge detection, posts each pin's initial
// level, then watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for _, in := range w.inputs {
		pull := gpio.PullDown
		if in.PullUp {
			pull = gpio.PullUp
		}
		if err := in.Pin.In(pull, gpio.BothEdges); err != nil {
			return fmt.Errorf("configuring %s: %w", in.Pin, err)
		}
	}

	var wg sync.WaitGroup
	for _, in := range w.inputs {
		wg.Add(1)
		go func(in Input) {
			defer wg.Done()
			w.watch(ctx, in)
		}(in)
	}
	wg.Wait()
	return nil
}

func (w *Watcher) watch(ctx context.Context, in Input) {
	last := in.Pin.Read()
	w.post(in.Channel, last)

	for ctx.Err() == nil {
		if !in.Pin.WaitForEdge(edgeTimeout) {
			continue
		}
		level := in.Pin.Read()
		if level == last {
			// Bounce.
			continue
		}
		last = level
		w.post(in.Channel, level)
	}
}

func (w *Watcher) post(channel int, level gpio.Level) {
	if !w.poster.Post(event.State(channel, level == gpio.High)) {
		w.logger.Warn("event queue full, dropping input state", "channel", channel)
	}
}
