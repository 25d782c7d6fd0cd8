package display

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/settings"
)

type staticSettings struct{ cfg settings.Config }

func (s *staticSettings) Snapshot() settings.Config { return s.cfg }

type failingRenderer struct{}

func (failingRenderer) Render(string, Color) error { return errors.New("spi timeout") }

type countingLogger struct{ warns int }

func (l *countingLogger) Debug(string, ...any) {}
func (l *countingLogger) Warn(string, ...any)  { l.warns++ }

func newTestPolicy() (*Policy, *staticSettings, *LogRenderer) {
	s := &staticSettings{cfg: settings.Defaults()}
	r := NewLogRenderer(nil)
	return NewPolicy(s, r, nil), s, r
}

// =============================================================================
// Palette
// =============================================================================

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		want   Color
		wantOk bool
	}{
		{"red", Color{50, 0, 0}, true},
		{"pink", Color{50, 5, 20}, true},
		{"white", Color{50, 50, 50}, true},
		{"Red", Color{}, false}, // case-sensitive
		{"purple", Color{}, false},
		{"", Color{}, false},
	}
	for _, tt := range tests {
		got, ok := Lookup(tt.name)
		if ok != tt.wantOk || got != tt.want {
			t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestPalette_OrderAndCopy(t *testing.T) {
	p := Palette()
	want := []string{"red", "green", "blue", "cyan", "yellow", "white", "pink"}
	if len(p) != len(want) {
		t.Fatalf("len(Palette()) = %d, want %d", len(p), len(want))
	}
	for i, name := range want {
		if p[i].Name != name {
			t.Errorf("Palette()[%d] = %q, want %q", i, p[i].Name, name)
		}
	}

	p[0].Name = "mutated"
	if Palette()[0].Name != "red" {
		t.Error("Palette() exposes the registry")
	}
}

// =============================================================================
// Classification and formatting
// =============================================================================

func TestClassify_Total(t *testing.T) {
	low, high := 1800, 2400
	for v := -6000; v <= 13000; v += 7 {
		z := Classify(v, low, high)
		var want Zone
		switch {
		case v < low:
			want = ZoneLow
		case v > high:
			want = ZoneHigh
		default:
			want = ZoneDefault
		}
		if z != want {
			t.Fatalf("Classify(%d) = %v, want %v", v, z, want)
		}
	}

	// Boundaries belong to the default band.
	if Classify(low, low, high) != ZoneDefault || Classify(high, low, high) != ZoneDefault {
		t.Error("zone boundaries are not inclusive")
	}
}

func TestFormatHundredths(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{2150, "2150"},
		{512, "0512"},
		{0, "0000"},
		{9999, "9999"},
		{10000, "----"},
		{-5, "-005"},
		{-999, "-999"},
		{-1000, "----"},
	}
	for _, tt := range tests {
		if got := FormatHundredths(tt.in); got != tt.want {
			t.Errorf("FormatHundredths(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToHundredths_Rounds(t *testing.T) {
	if got := ToHundredths(21.4375); got != 2144 {
		t.Errorf("ToHundredths(21.4375) = %d, want 2144", got)
	}
	if got := ToHundredths(-0.0625); got != -6 {
		t.Errorf("ToHundredths(-0.0625) = %d, want -6", got)
	}
}

// =============================================================================
// Policy
// =============================================================================

func TestPolicy_ApplySampleSelectsZoneColor(t *testing.T) {
	p, _, r := newTestPolicy()

	tests := []struct {
		celsius float64
		text    string
		color   string
	}{
		{21.5, "2150", "red"},     // in band: default
		{12.0, "1200", "blue"},    // below: low
		{25.25, "2525", "yellow"}, // above: high
	}
	for _, tt := range tests {
		intent, ok := p.Apply(Sample(tt.celsius))
		if !ok {
			t.Fatalf("Apply(%v) rendered nothing", tt.celsius)
		}
		if intent.Text != tt.text || intent.ColorName != tt.color {
			t.Errorf("Apply(%v) = %q/%s, want %q/%s", tt.celsius, intent.Text, intent.ColorName, tt.text, tt.color)
		}
		last, _ := r.Last()
		if last.Text != tt.text {
			t.Errorf("renderer got %q, want %q", last.Text, tt.text)
		}
	}
}

func TestPolicy_LastKnownBeforeSample(t *testing.T) {
	p, _, r := newTestPolicy()

	if _, ok := p.Apply(LastKnown()); ok {
		t.Error("LastKnown() before any sample rendered")
	}
	if _, n := r.Last(); n != 0 {
		t.Errorf("renders = %d, want 0", n)
	}
}

func TestPolicy_RedisplayUsesNewZone(t *testing.T) {
	p, s, r := newTestPolicy()
	p.Apply(Sample(23.0)) // default band with 1800..2400

	s.cfg.ZoneHigh = 2250
	p.Redisplay()

	last, n := r.Last()
	if n != 2 {
		t.Fatalf("renders = %d, want 2", n)
	}
	if last.Text != "2300" || last.Color != (Color{50, 50, 0}) {
		t.Errorf("Redisplay() rendered %q %v, want 2300 in yellow", last.Text, last.Color)
	}
}

func TestPolicy_RedisplaySuppressedWhenMirroringOff(t *testing.T) {
	p, s, r := newTestPolicy()
	p.Apply(Sample(21.5))
	p.Show("HI", "")

	s.cfg.ShowInternal = false
	if _, ok := p.Apply(LastKnown()); ok {
		t.Error("Apply(LastKnown()) rendered with mirroring off")
	}
	p.Redisplay()

	last, n := r.Last()
	if n != 2 {
		t.Errorf("renders = %d, want 2", n)
	}
	if last.Text != "HI" {
		t.Errorf("Last() = %q, want HI", last.Text)
	}

	s.cfg.ShowInternal = true
	p.Redisplay()
	if last, _ := r.Last(); last.Text != "2150" {
		t.Errorf("Redisplay() after re-enabling = %q, want 2150", last.Text)
	}
}

func TestPolicy_Show(t *testing.T) {
	p, s, _ := newTestPolicy()

	if got := p.Show("1234", ""); got.ColorName != "red" || got.Text != "1234" {
		t.Errorf("Show() without color = %+v, want red", got)
	}
	if got := p.Show("1234", "green"); got.ColorName != "green" {
		t.Errorf("Show(green) = %+v", got)
	}
	if got := p.Show("1234", "ultraviolet"); got.ColorName != "red" {
		t.Errorf("Show(unknown) = %+v, want default red", got)
	}

	s.cfg.DefaultColor = "cyan"
	if got := p.Show("lan", ""); got.ColorName != "cyan" {
		t.Errorf("Show() after default change = %+v, want cyan", got)
	}
}

func TestPolicy_ShowDoesNotReplaceLastSample(t *testing.T) {
	p, _, r := newTestPolicy()
	p.Apply(Sample(20.0))
	p.Show("mqtt", "")
	p.Redisplay()

	if last, _ := r.Last(); last.Text != "2000" {
		t.Errorf("Redisplay() after Show rendered %q, want 2000", last.Text)
	}
}

func TestPolicy_ShowProgress(t *testing.T) {
	p, _, _ := newTestPolicy()
	tests := map[int]string{0: "P  0", 42: "P 42", 100: "P100"}
	for pct, want := range tests {
		if got := p.ShowProgress(pct); got.Text != want {
			t.Errorf("ShowProgress(%d) = %q, want %q", pct, got.Text, want)
		}
	}
}

func TestPolicy_UnknownStoredColorFallsBack(t *testing.T) {
	p, s, _ := newTestPolicy()
	s.cfg.LowColor = "gone"

	intent, _ := p.Apply(Sample(5.0))
	if intent.ColorName != "red" {
		t.Errorf("ColorName = %q, want default red", intent.ColorName)
	}

	s.cfg.DefaultColor = "gone"
	intent, _ = p.Apply(Sample(5.0))
	if intent.ColorName != "red" {
		t.Errorf("ColorName with no valid names = %q, want first palette entry", intent.ColorName)
	}
}

func TestPolicy_RenderFailureLogged(t *testing.T) {
	logger := &countingLogger{}
	p := NewPolicy(&staticSettings{cfg: settings.Defaults()}, failingRenderer{}, logger)

	p.Show("init", "")
	if logger.warns != 1 {
		t.Errorf("warnings = %d, want 1", logger.warns)
	}
}
