package coordinator

import (
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/display"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/sensorbus"
)

type publishedMsg struct {
	topic    string
	payload  []byte
	retained bool
}

// mockPublisher records publishes, in the shape of the KNX bridge tests.
type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	msgs      []publishedMsg
	notify    chan string
	failWith  error
}

func newMockPublisher(connected bool) *mockPublisher {
	return &mockPublisher{connected: connected, notify: make(chan string, 64)}
}

func (p *mockPublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	p.mu.Lock()
	if p.failWith != nil {
		err := p.failWith
		p.mu.Unlock()
		return err
	}
	p.msgs = append(p.msgs, publishedMsg{topic, payload, retained})
	p.mu.Unlock()
	select {
	case p.notify <- topic:
	default:
	}
	return nil
}

func (p *mockPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *mockPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *mockPublisher) setFailure(err error) {
	p.mu.Lock()
	p.failWith = err
	p.mu.Unlock()
}

func (p *mockPublisher) byTopic(topic string) []publishedMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedMsg
	for _, m := range p.msgs {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (p *mockPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

// recordingDisplay records every call without rendering.
type recordingDisplay struct {
	mu         sync.Mutex
	applied    []display.Input
	shows      []string
	progress   []int
	redisplays int
}

func (d *recordingDisplay) Redisplay() {
	d.mu.Lock()
	d.redisplays++
	d.mu.Unlock()
}

func (d *recordingDisplay) Apply(in display.Input) (display.Intent, bool) {
	d.mu.Lock()
	d.applied = append(d.applied, in)
	d.mu.Unlock()
	return display.Intent{}, true
}

func (d *recordingDisplay) Show(text, _ string) display.Intent {
	d.mu.Lock()
	d.shows = append(d.shows, text)
	d.mu.Unlock()
	return display.Intent{Text: text}
}

func (d *recordingDisplay) ShowProgress(pct int) display.Intent {
	d.mu.Lock()
	d.progress = append(d.progress, pct)
	d.mu.Unlock()
	return display.Intent{}
}

type fakeSensors struct {
	table []sensorbus.Sensor
	reads int
}

func (s *fakeSensors) Sensors() []sensorbus.Sensor { return s.table }

func (s *fakeSensors) At(i int) (sensorbus.Sensor, bool) {
	if i < 0 || i >= len(s.table) {
		return sensorbus.Sensor{}, false
	}
	return s.table[i], true
}

func (s *fakeSensors) ReadNow() { s.reads++ }

type recordingReporter struct {
	events []event.Measurement
}

func (r *recordingReporter) ReportProgress(ev event.Measurement) error {
	r.events = append(r.events, ev)
	return nil
}

type recordingTelemetry struct {
	temps  []float64
	states []bool
	stats  []map[string]int64
}

func (t *recordingTelemetry) WriteTemperature(_, _ string, c float64, _ time.Time) {
	t.temps = append(t.temps, c)
}

func (t *recordingTelemetry) WriteState(_ int, on bool, _ time.Time) {
	t.states = append(t.states, on)
}

func (t *recordingTelemetry) WriteStatistics(c map[string]int64, _ time.Time) {
	t.stats = append(t.stats, c)
}

type countingCanceller struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCanceller) CancelSelfRollback() error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return nil
}

func (c *countingCanceller) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// memStore is an in-memory settings.Store.
type memStore struct {
	mu   sync.Mutex
	ints map[string]int
	strs map[string]string
}

func newMemStore() *memStore {
	return &memStore{ints: map[string]int{}, strs: map[string]string{}}
}

func (s *memStore) Write(key string, v int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints[key] = v
	return nil
}

func (s *memStore) WriteStr(key, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strs[key] = v
	return nil
}

func (s *memStore) Read(key string, def int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.ints[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *memStore) ReadStr(key, def string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.strs[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *memStore) Commit() error { return nil }

// recordingLogger keeps warning messages.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
