package display

// Color is an RGB triple at display brightness.
type Color struct {
	R, G, B uint8
}

// NamedColor is one palette entry.
type NamedColor struct {
	Name string
	Color
}

// palette is ordered; Palette returns it in this order.
var palette = []NamedColor{
	{"red", Color{50, 0, 0}},
	{"green", Color{0, 50, 0}},
	{"blue", Color{0, 0, 50}},
	{"cyan", Color{0, 50, 50}},
	{"yellow", Color{50, 50, 0}},
	{"white", Color{50, 50, 50}},
	{"pink", Color{50, 5, 20}},
}

// Lookup resolves a palette name. Matching is exact and case-sensitive.
func Lookup(name string) (Color, bool) {
	for _, nc := range palette {
		if nc.Name == name {
			return nc.Color, true
		}
	}
	return Color{}, false
}

// Palette returns a copy of the palette in registry order.
func Palette() []NamedColor {
	out := make([]NamedColor, len(palette))
	copy(out, palette)
	return out
}
