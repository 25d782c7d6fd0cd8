package display

import "sync"

// Intent is one thing to draw.
type Intent struct {
	Text      string
	ColorName string
	Color     Color
}

// Renderer draws intents on the physical display.
type Renderer interface {
	Render(text string, c Color) error
}

// Logger is the logging surface the package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// LogRenderer logs every intent instead of driving hardware, and keeps the
// last one for inspection.
type LogRenderer struct {
	logger Logger

	mu   sync.Mutex
	last Intent
	n    int
}

// NewLogRenderer returns a renderer writing to logger.
func NewLogRenderer(logger Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

// Render logs text and c.
func (r *LogRenderer) Render(text string, c Color) error {
	r.mu.Lock()
	r.last = Intent{Text: text, Color: c}
	r.n++
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.Debug("display", "text", text, "r", c.R, "g", c.G, "b", c.B)
	}
	return nil
}

// Last returns the most recent intent and how many renders happened.
func (r *LogRenderer) Last() (Intent, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.n
}
