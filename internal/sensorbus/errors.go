package sensorbus

import "errors"

var (
	// ErrNoSensors is returned by Scan when the bus reports no devices.
	ErrNoSensors = errors.New("sensorbus: no sensors found")

	// ErrUnknownSensor is returned for an address not in the table.
	ErrUnknownSensor = errors.New("sensorbus: unknown sensor")
)
