// Package display decides what the four-digit RGB seven-segment display
// shows.
//
// Policy turns the diagnostic sensor's reading into a four-character
// fixed-point string (hundredths of a degree, zero padded) and picks a
// color by comparing the reading against the configured zone. It keeps the
// last reading so a configuration change can re-render without a new
// sample.
//
// Renderer draws an Intent. Glyph encoding is hardware specific and lives
// behind that interface; LogRenderer records intents for boards without a
// display attached.
package display
