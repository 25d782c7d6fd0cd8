// Package sensorbus discovers temperature sensors and turns their readings
// into events.
//
// A Bus scans its Probe once, keeps an ordered table of sensor addresses
// with friendly names, and reads every sensor on each poll tick or
// ReadNow trigger. Readings are posted to an event.Poster with the
// sensor's table position as the source.
//
// Usage:
//
//	probe, err := sensorbus.OpenDS18B20("", 12)
//	bus := sensorbus.New(probe, queue, sensorbus.Options{Interval: time.Minute})
//	if err := bus.Scan(model.StoredAlias); err != nil { ... }
//	go bus.Run(ctx)
package sensorbus
