package coordinator

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/display"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/health"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/clock"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/protocol"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/sensorbus"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/settings"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/stats"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/timesync"
)

// DefaultStatisticsInterval is the queue wait timeout and flush period.
const DefaultStatisticsInterval = 1800 * time.Second

// confirmPoll caps the queue wait while the running image is unconfirmed,
// so confirmation does not wait for the next event or statistics tick.
const confirmPoll = 5 * time.Second

// progressDivider shows every third update progress tick on the display.
const progressDivider = 3

// Publisher is the outbound transport.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Display is the rendering surface the loop drives.
type Display interface {
	Apply(in display.Input) (display.Intent, bool)
	Show(text, colorName string) display.Intent
	ShowProgress(percent int) display.Intent
}

// CommandHandler applies inbound commands.
type CommandHandler interface {
	Handle(payload []byte) protocol.ChangeSet
}

// Sensors is the sensor bus table.
type Sensors interface {
	Sensors() []sensorbus.Sensor
	At(index int) (sensorbus.Sensor, bool)
	ReadNow()
}

// ProgressReporter publishes update transfer progress.
type ProgressReporter interface {
	ReportProgress(ev event.Measurement) error
}

// Telemetry mirrors readings to a time-series store.
type Telemetry interface {
	WriteTemperature(sensor, name string, celsius float64, ts time.Time)
	WriteState(channel int, on bool, ts time.Time)
	WriteStatistics(counters map[string]int64, ts time.Time)
}

// Logger is the logging surface the coordinator needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Options holds the collaborators of a Coordinator. Sensors, Updater
// and Telemetry may be nil.
type Options struct {
	Queue     *event.Queue
	Clock     clock.Clock
	Tracker   *health.Tracker
	Gate      *health.RollbackGate
	Model     *settings.Model
	Display   Display
	Handler   CommandHandler
	Publisher Publisher
	Topics    mqtt.Topics
	QoS       byte
	Sensors   Sensors
	Updater   ProgressReporter
	Telemetry Telemetry
	Stats     *stats.Counters

	// StatisticsInterval defaults to DefaultStatisticsInterval.
	StatisticsInterval time.Duration

	// MinEpoch defaults to timesync.DefaultMinEpoch.
	MinEpoch int64

	// Version is reported in the info message.
	Version string

	Logger Logger
}

// Coordinator is the single consumer of the event queue.
type Coordinator struct {
	queue     *event.Queue
	clock     clock.Clock
	tracker   *health.Tracker
	gate      *health.RollbackGate
	model     *settings.Model
	display   Display
	handler   CommandHandler
	pub       Publisher
	topics    mqtt.Topics
	qos       byte
	sensors   Sensors
	updater   ProgressReporter
	telemetry Telemetry
	stats     *stats.Counters
	interval  time.Duration
	minEpoch  int64
	version   string
	logger    Logger

	// Owned by the Run goroutine. lastFlush stays zero until the first
	// statistics flush.
	lastFlush     time.Time
	progressTicks int
}

// New creates a Coordinator.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		queue:     opts.Queue,
		clock:     opts.Clock,
		tracker:   opts.Tracker,
		gate:      opts.Gate,
		model:     opts.Model,
		display:   opts.Display,
		handler:   opts.Handler,
		pub:       opts.Publisher,
		topics:    opts.Topics,
		qos:       opts.QoS,
		sensors:   opts.Sensors,
		updater:   opts.Updater,
		telemetry: opts.Telemetry,
		stats:     opts.Stats,
		interval:  opts.StatisticsInterval,
		minEpoch:  opts.MinEpoch,
		version:   opts.Version,
		logger:    opts.Logger,
	}
	if c.queue == nil {
		c.queue = event.NewQueue(event.DefaultCapacity)
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.tracker == nil {
		c.tracker = health.NewTracker()
	}
	if c.stats == nil {
		c.stats = &stats.Counters{}
	}
	if c.interval <= 0 {
		c.interval = DefaultStatisticsInterval
	}
	if c.minEpoch <= 0 {
		c.minEpoch = timesync.DefaultMinEpoch
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	c.queue.SetDropFunc(func(m event.Measurement, dropped uint64) {
		c.logger.Warn("event queue saturated, dropping event",
			"kind", m.Kind.String(), "dropped", dropped)
	})
	return c
}

// Post enqueues m without blocking and reports whether it was accepted.
// Producers may post to the queue directly; drops are logged either way.
func (c *Coordinator) Post(m event.Measurement) bool {
	return c.queue.Post(m)
}

// Queue returns the event queue.
func (c *Coordinator) Queue() *event.Queue {
	return c.queue
}

// Run drains the queue until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.logger.Info("coordinator started", "statistics_interval", c.interval, "queue_capacity", c.queue.Cap())
	for {
		timeout := c.clock.After(c.wait())
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped")
			return
		case m := <-c.queue.C():
			c.housekeeping()
			c.dispatch(m)
		case <-timeout:
			c.housekeeping()
		}
	}
}

func (c *Coordinator) wait() time.Duration {
	if c.gate != nil && !c.gate.Confirmed() && c.interval > confirmPoll {
		return confirmPoll
	}
	return c.interval
}

// housekeeping runs the periodic checks of every loop wake.
func (c *Coordinator) housekeeping() {
	now := c.clock.Now()
	if !timesync.Plausible(now, c.minEpoch) {
		return
	}

	if c.tracker.SetBaseline(now) {
		c.logger.Info("statistics baseline recorded", "started", now.UTC())
	}

	// A zero lastFlush makes the first wake with a connection flush at once.
	if (c.lastFlush.IsZero() || now.Sub(c.lastFlush) >= c.interval) && c.pub.IsConnected() {
		c.flushStatistics(now)
		c.lastFlush = now
	}

	if c.gate == nil {
		return
	}
	confirmed, err := c.gate.Check(now)
	if err != nil {
		c.logger.Error("confirming running image failed", "error", err)
		return
	}
	if confirmed {
		c.logger.Info("running image confirmed, rollback cancelled",
			"uptime", c.tracker.UptimeSinceBaseline(now))
	}
}

// dispatch handles one dequeued event.
func (c *Coordinator) dispatch(m event.Measurement) {
	switch m.Kind {
	case event.KindTemperature:
		c.handleTemperature(m)
	case event.KindState:
		c.handleState(m)
	case event.KindUpdateProgress:
		c.handleProgress(m)
	default:
		c.logger.Warn("ignoring event of unknown kind", "kind", m.Kind.String())
	}
}

func (c *Coordinator) sensorAt(index int) sensorbus.Sensor {
	if c.sensors != nil {
		if s, ok := c.sensors.At(index); ok {
			return s
		}
	}
	return sensorbus.Sensor{}
}

func (c *Coordinator) handleTemperature(m event.Measurement) {
	if m.Err != nil {
		c.stats.AddSensorError()
		c.logger.Warn("sensor read failed", "sensor", m.Source, "error", m.Err)
		return
	}
	c.tracker.Mark(health.SensorDataSeen)

	s := c.sensorAt(m.Source)
	cfg := c.model.Snapshot()
	if cfg.ShowInternal && isDiagnostic(cfg.DiagnosticSensor, s.Address, m.Source) {
		c.display.Apply(display.Sample(m.Temperature))
	}

	now := c.clock.Now()
	if s.Address == "" {
		c.logger.Debug("reading from unlisted sensor", "sensor", m.Source)
		return
	}
	if c.pub.IsConnected() {
		c.publish(c.topics.TempSensor(s.Address), TemperatureMessage{
			Dev:    c.topics.DeviceID,
			ID:     msgTemperature,
			Sensor: s.Address,
			Name:   s.Name,
			Value:  m.Temperature,
			TS:     now.Unix(),
		}, false)
	}
	if c.telemetry != nil {
		c.telemetry.WriteTemperature(s.Address, s.Name, m.Temperature, now)
	}
}

// isDiagnostic selects the mirrored sensor. With none configured the
// first sensor on the bus is mirrored.
func isDiagnostic(diag, addr string, index int) bool {
	if diag == "" {
		return index == 0
	}
	return diag == addr
}

// handleState counts a connected state change as a send even though no
// message is published for it.
func (c *Coordinator) handleState(m event.Measurement) {
	if c.pub.IsConnected() {
		c.stats.AddSend()
	}
	if c.telemetry != nil {
		c.telemetry.WriteState(m.Source, m.State, c.clock.Now())
	}
}

func (c *Coordinator) handleProgress(m event.Measurement) {
	if c.updater != nil {
		if err := c.updater.ReportProgress(m); err != nil {
			c.logger.Warn("reporting update progress failed", "file", m.File, "error", err)
		}
	}
	if m.Err != nil {
		c.progressTicks = 0
		c.display.Apply(display.LastKnown())
		return
	}
	c.progressTicks++
	if c.progressTicks%progressDivider == 0 {
		c.display.ShowProgress(m.Progress)
	}
}
