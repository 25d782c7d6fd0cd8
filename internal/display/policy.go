package display

import (
	"fmt"
	"math"
	"sync"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/settings"
)

// Display limits of four seven-segment digits.
const (
	minShown = -999
	maxShown = 9999

	outOfRange = "----"
)

// Input is what triggers a render: a fresh sample or a redisplay of the
// last one.
type Input struct {
	celsius   float64
	lastKnown bool
}

// Sample wraps a new reading in degrees Celsius.
func Sample(celsius float64) Input {
	return Input{celsius: celsius}
}

// LastKnown re-renders the previous sample, e.g. after a zone change.
func LastKnown() Input {
	return Input{lastKnown: true}
}

// IsLastKnown reports whether in redisplays the previous sample.
func (in Input) IsLastKnown() bool {
	return in.lastKnown
}

// Celsius returns the sample value; zero for LastKnown.
func (in Input) Celsius() float64 {
	return in.celsius
}

// Zone is the band a reading falls into.
type Zone int

const (
	ZoneDefault Zone = iota
	ZoneLow
	ZoneHigh
)

// Classify places hundredths against the low/high boundaries.
func Classify(hundredths, low, high int) Zone {
	switch {
	case hundredths < low:
		return ZoneLow
	case hundredths > high:
		return ZoneHigh
	default:
		return ZoneDefault
	}
}

// ToHundredths converts degrees Celsius to rounded hundredths.
func ToHundredths(celsius float64) int {
	return int(math.Round(celsius * 100))
}

// FormatHundredths renders hundredths as four zero-padded digits with two
// implied decimals, e.g. 2150 for 21.50 °C. Values that do not fit render
// as "----".
func FormatHundredths(v int) string {
	if v < minShown || v > maxShown {
		return outOfRange
	}
	return fmt.Sprintf("%04d", v)
}

// Settings is the configuration view the policy reads.
type Settings interface {
	Snapshot() settings.Config
}

// Policy selects and renders display intents.
//
// Thread Safety:
//   - Apply, Redisplay and Show may be called from the coordinator and the
//     remote command handler concurrently; renders are serialised.
type Policy struct {
	settings Settings
	renderer Renderer
	logger   Logger

	mu      sync.Mutex
	last    int
	hasLast bool
}

// NewPolicy returns a policy reading configuration from s and drawing on r.
func NewPolicy(s Settings, r Renderer, logger Logger) *Policy {
	return &Policy{settings: s, renderer: r, logger: logger}
}

// Apply renders in. A LastKnown input renders nothing and returns false
// before any sample or while mirroring is switched off, so it never
// replaces text drawn by Show.
func (p *Policy) Apply(in Input) (Intent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.settings.Snapshot()
	if !in.lastKnown {
		p.last = ToHundredths(in.celsius)
		p.hasLast = true
	}
	if !p.hasLast || (in.lastKnown && !cfg.ShowInternal) {
		return Intent{}, false
	}

	name := cfg.DefaultColor
	switch Classify(p.last, cfg.ZoneLow, cfg.ZoneHigh) {
	case ZoneLow:
		name = cfg.LowColor
	case ZoneHigh:
		name = cfg.HighColor
	}

	intent := p.intent(FormatHundredths(p.last), name, cfg.DefaultColor)
	p.render(intent)
	return intent, true
}

// Redisplay re-renders the last sample with the current configuration.
func (p *Policy) Redisplay() {
	p.Apply(LastKnown())
}

// Show renders text directly. An absent or unknown colorName falls back to
// the configured default color.
func (p *Policy) Show(text, colorName string) Intent {
	p.mu.Lock()
	defer p.mu.Unlock()

	def := p.settings.Snapshot().DefaultColor
	if colorName == "" {
		colorName = def
	}
	intent := p.intent(text, colorName, def)
	p.render(intent)
	return intent
}

// ShowProgress renders an update percentage as "P" plus three digits.
func (p *Policy) ShowProgress(percent int) Intent {
	return p.Show(fmt.Sprintf("P%3d", percent), "")
}

// intent resolves name, then fallback, then the first palette entry.
func (p *Policy) intent(text, name, fallback string) Intent {
	if c, ok := Lookup(name); ok {
		return Intent{Text: text, ColorName: name, Color: c}
	}
	if c, ok := Lookup(fallback); ok {
		return Intent{Text: text, ColorName: fallback, Color: c}
	}
	return Intent{Text: text, ColorName: palette[0].Name, Color: palette[0].Color}
}

func (p *Policy) render(in Intent) {
	if err := p.renderer.Render(in.Text, in.Color); err != nil && p.logger != nil {
		p.logger.Warn("display render failed", "text", in.Text, "error", err)
	}
}
