package settings

import (
	"sync"
	"unicode/utf8"
)

// Store keys. They match the key names of the board's flash layout so an
// exported dump stays readable.
const (
	KeyDiagnosticSensor = "specsensor"
	KeyShowInternal     = "inttemp"
	KeyZoneLow          = "zonelow"
	KeyZoneHigh         = "zonehigh"
	KeyDefaultColor     = "defcolor"
	KeyLowColor         = "locolor"
	KeyHighColor        = "hicolor"
)

// MaxNameLen is the byte capacity of the sensor id and alias fields.
const MaxNameLen = 20

// Config is a snapshot of the persisted configuration.
type Config struct {
	// DiagnosticSensor is the address mirrored on the display.
	DiagnosticSensor string

	// ShowInternal enables mirroring the diagnostic sensor on the display.
	ShowInternal bool

	// ZoneLow and ZoneHigh bound the default-color band, in hundredths of
	// a degree Celsius.
	ZoneLow  int
	ZoneHigh int

	DefaultColor string
	LowColor     string
	HighColor    string
}

// Defaults returns the first-boot configuration.
func Defaults() Config {
	return Config{
		ShowInternal: true,
		ZoneLow:      1800,
		ZoneHigh:     2400,
		DefaultColor: "red",
		LowColor:     "blue",
		HighColor:    "yellow",
	}
}

// Logger is the logging surface Model needs.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// Model is the in-memory configuration backed by a Store.
//
// Thread Safety:
//   - Setters are called from the remote command handler; Snapshot may be
//     called concurrently from any goroutine.
type Model struct {
	mu    sync.RWMutex
	cfg   Config
	store Store

	logger Logger
}

// Load reads every field from store, falling back to its default when the
// key is missing or unreadable.
func Load(store Store, logger Logger) *Model {
	if logger == nil {
		logger = nopLogger{}
	}
	m := &Model{store: store, logger: logger}
	d := Defaults()

	m.cfg = Config{
		DiagnosticSensor: Truncate(m.readStr(KeyDiagnosticSensor, d.DiagnosticSensor), MaxNameLen),
		ShowInternal:     m.readInt(KeyShowInternal, boolToInt(d.ShowInternal)) != 0,
		ZoneLow:          m.readInt(KeyZoneLow, d.ZoneLow),
		ZoneHigh:         m.readInt(KeyZoneHigh, d.ZoneHigh),
		DefaultColor:     m.readStr(KeyDefaultColor, d.DefaultColor),
		LowColor:         m.readStr(KeyLowColor, d.LowColor),
		HighColor:        m.readStr(KeyHighColor, d.HighColor),
	}
	return m
}

func (m *Model) readInt(key string, def int) int {
	v, err := m.store.Read(key, def)
	if err != nil {
		m.logger.Warn("reading setting failed, using default", "key", key, "error", err)
		return def
	}
	return v
}

func (m *Model) readStr(key, def string) string {
	v, err := m.store.ReadStr(key, def)
	if err != nil {
		m.logger.Warn("reading setting failed, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Snapshot returns a copy of the current configuration.
func (m *Model) Snapshot() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetShowInternal updates the display switch and reports whether it changed.
func (m *Model) SetShowInternal(v bool) bool {
	return setField(m, &m.cfg.ShowInternal, v, func() error {
		return m.store.Write(KeyShowInternal, boolToInt(v))
	}, KeyShowInternal)
}

// SetZoneLow updates the lower zone boundary and reports whether it changed.
func (m *Model) SetZoneLow(v int) bool {
	return setField(m, &m.cfg.ZoneLow, v, func() error {
		return m.store.Write(KeyZoneLow, v)
	}, KeyZoneLow)
}

// SetZoneHigh updates the upper zone boundary and reports whether it changed.
func (m *Model) SetZoneHigh(v int) bool {
	return setField(m, &m.cfg.ZoneHigh, v, func() error {
		return m.store.Write(KeyZoneHigh, v)
	}, KeyZoneHigh)
}

// SetDefaultColor updates the in-band color name and reports whether it changed.
func (m *Model) SetDefaultColor(name string) bool {
	return m.setString(&m.cfg.DefaultColor, name, KeyDefaultColor)
}

// SetLowColor updates the below-band color name and reports whether it changed.
func (m *Model) SetLowColor(name string) bool {
	return m.setString(&m.cfg.LowColor, name, KeyLowColor)
}

// SetHighColor updates the above-band color name and reports whether it changed.
func (m *Model) SetHighColor(name string) bool {
	return m.setString(&m.cfg.HighColor, name, KeyHighColor)
}

// SetDiagnosticSensor updates the mirrored sensor, truncated to
// MaxNameLen bytes, and reports whether it changed.
func (m *Model) SetDiagnosticSensor(addr string) bool {
	return m.setString(&m.cfg.DiagnosticSensor, Truncate(addr, MaxNameLen), KeyDiagnosticSensor)
}

func (m *Model) setString(field *string, v, key string) bool {
	return setField(m, field, v, func() error {
		return m.store.WriteStr(key, v)
	}, key)
}

// setField assigns v to *field under the model lock when it differs and
// issues the store write. A failed write keeps the new in-memory value.
func setField[T comparable](m *Model, field *T, v T, write func() error, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if *field == v {
		return false
	}
	*field = v
	if err := write(); err != nil {
		m.logger.Warn("persisting setting failed", "key", key, "error", err)
	}
	return true
}

// Commit makes all pending writes durable. Failures are logged and returned.
func (m *Model) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Commit(); err != nil {
		m.logger.Warn("committing settings failed", "error", err)
		return err
	}
	return nil
}

// SaveAlias persists a sensor's friendly name under its address and commits.
func (m *Model) SaveAlias(addr, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.WriteStr(addr, Truncate(name, MaxNameLen)); err != nil {
		m.logger.Warn("persisting sensor alias failed", "sensor", addr, "error", err)
		return err
	}
	if err := m.store.Commit(); err != nil {
		m.logger.Warn("committing sensor alias failed", "sensor", addr, "error", err)
		return err
	}
	return nil
}

// StoredAlias returns the persisted friendly name of addr, if any.
func (m *Model) StoredAlias(addr string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// The address doubles as the default: an unnamed sensor reads back as itself.
	name, err := m.store.ReadStr(addr, addr)
	if err != nil {
		m.logger.Warn("reading sensor alias failed", "sensor", addr, "error", err)
		return "", false
	}
	if name == addr || name == "" {
		return "", false
	}
	return name, true
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
