package protocol

import (
	"github.com/nerrad567/gray-logic-rgb7seg/internal/display"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/settings"
)

// Zone boundary limits in hundredths of a degree Celsius. They cover the
// DS18B20 measuring range.
const (
	MinZone = -5500
	MaxZone = 12500
)

// MinFileLen is the shortest update filename accepted; anything up to
// this length is treated as a missing field.
const MinFileLen = 5

// Display is the rendering surface commands drive.
type Display interface {
	Redisplay()
	Show(text, colorName string) display.Intent
}

// Updater starts a firmware image fetch.
type Updater interface {
	FetchAndApply(file string) error
}

// Aliases is the sensor bus alias table.
type Aliases interface {
	// SetAlias names the sensor at addr and reports whether the stored
	// name changed.
	SetAlias(addr, name string) bool
}

// Logger is the logging surface Handler needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

// Handler applies inbound commands to the configuration model.
//
// Handler is not safe for concurrent use; the broker delivers messages
// on one goroutine.
type Handler struct {
	model   *settings.Model
	display Display
	updater Updater
	aliases Aliases
	logger  Logger
}

// Deps holds the collaborators of a Handler. Updater and Aliases may be
// nil, in which case the matching commands are ignored.
type Deps struct {
	Model   *settings.Model
	Display Display
	Updater Updater
	Aliases Aliases
	Logger  Logger
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		model:   d.Model,
		display: d.Display,
		updater: d.Updater,
		aliases: d.Aliases,
		logger:  d.Logger,
	}
	if h.logger == nil {
		h.logger = nopLogger{}
	}
	return h
}

// Handle decodes payload and applies it.
//
// Parameters:
//   - payload: raw JSON command
//
// Returns:
//   - ChangeSet: categories to republish; empty for unknown, malformed
//     or no-op commands
func (h *Handler) Handle(payload []byte) ChangeSet {
	doc, err := parseDocument(payload)
	if err != nil {
		h.logger.Debug("discarding malformed command", "error", err, "size", len(payload))
		return ChangeSet{}
	}

	id, _ := doc.str("id")
	cmd := ParseCommandID(id)

	switch cmd {
	case CommandOTAUpdate:
		return h.otaUpdate(doc)
	case CommandSetup:
		return h.setup(doc)
	case CommandShow:
		return h.show(doc)
	case CommandSensorSetup:
		return h.sensorSetup(doc)
	case CommandSensorFriendlyName:
		return h.sensorFriendlyName(doc)
	default:
		h.logger.Debug("ignoring unknown command", "id", id)
		return ChangeSet{}
	}
}

func (h *Handler) otaUpdate(doc document) ChangeSet {
	file, ok := doc.str("file")
	if !ok || len(file) <= MinFileLen {
		h.logger.Debug("ignoring update command without usable file", "file", file)
		return ChangeSet{}
	}
	if h.updater == nil {
		h.logger.Warn("update requested but no updater configured", "file", file)
		return ChangeSet{}
	}
	if err := h.updater.FetchAndApply(file); err != nil {
		h.logger.Warn("starting update failed", "file", file, "error", err)
		return ChangeSet{}
	}
	h.logger.Info("update started", "file", file)
	return ChangeSet{}
}

func (h *Handler) setup(doc document) ChangeSet {
	var cs ChangeSet
	misc := false

	if doc.has(settings.KeyShowInternal) {
		if v, ok := doc.boolean(settings.KeyShowInternal); ok {
			misc = h.model.SetShowInternal(v) || misc
		} else {
			h.logger.Debug("ignoring wrong-typed field", "field", settings.KeyShowInternal)
		}
	}

	if h.applyZones(doc) {
		misc = true
	}

	colorChanged := false
	for _, f := range []struct {
		field string
		set   func(string) bool
	}{
		{"defaultcolor", h.model.SetDefaultColor},
		{"lowcolor", h.model.SetLowColor},
		{"highcolor", h.model.SetHighColor},
	} {
		name, ok := doc.str(f.field)
		if !ok {
			continue
		}
		if _, known := display.Lookup(name); !known {
			h.logger.Debug("ignoring unknown color", "field", f.field, "color", name)
			continue
		}
		if f.set(name) {
			colorChanged = true
		}
	}

	if !misc && !colorChanged {
		return cs
	}

	h.model.Commit() //nolint:errcheck // logged by Model, memory stays authoritative
	h.display.Redisplay()

	cs = cs.With(CategoryMisc)
	if colorChanged {
		cs = cs.With(CategoryColors)
	}
	return cs
}

// applyZones applies zonelow and zonehigh independently. Each must be an
// integer within MinZone..MaxZone; the pair is not checked against each
// other, so an inverted pair classifies every reading as low or high.
func (h *Handler) applyZones(doc document) bool {
	changed := false
	for _, f := range []struct {
		key string
		set func(int) bool
	}{
		{settings.KeyZoneLow, h.model.SetZoneLow},
		{settings.KeyZoneHigh, h.model.SetZoneHigh},
	} {
		if !doc.has(f.key) {
			continue
		}
		v, ok := doc.integer(f.key)
		if !ok {
			h.logger.Debug("ignoring wrong-typed field", "field", f.key)
			continue
		}
		if v < MinZone || v > MaxZone {
			h.logger.Debug("ignoring out-of-range zone", "field", f.key, "value", v)
			continue
		}
		if f.set(v) {
			changed = true
		}
	}
	return changed
}

func (h *Handler) show(doc document) ChangeSet {
	text, ok := doc.str("data")
	if !ok {
		h.logger.Debug("ignoring show command without data")
		return ChangeSet{}
	}
	colorName, _ := doc.str("color")
	h.display.Show(text, colorName)
	return ChangeSet{}
}

func (h *Handler) sensorSetup(doc document) ChangeSet {
	addr, ok := doc.str("specialsensor")
	if !ok {
		h.logger.Debug("ignoring sensorsetup without specialsensor")
		return ChangeSet{}
	}
	if h.model.SetDiagnosticSensor(addr) {
		h.model.Commit() //nolint:errcheck // logged by Model
	}
	return Changes(CategorySensors)
}

func (h *Handler) sensorFriendlyName(doc document) ChangeSet {
	addr, okAddr := doc.str("sensor")
	name, okName := doc.str("name")
	if !okAddr || !okName || addr == "" {
		h.logger.Debug("ignoring sensorfriendlyname without sensor and name")
		return ChangeSet{}
	}
	if h.aliases == nil {
		return ChangeSet{}
	}

	name = settings.Truncate(name, settings.MaxNameLen)
	if !h.aliases.SetAlias(addr, name) {
		return ChangeSet{}
	}
	h.model.SaveAlias(addr, name) //nolint:errcheck // logged by Model
	return Changes(CategoryNames)
}
