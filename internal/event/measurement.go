package event

import "fmt"

// Kind discriminates Measurement payloads.
type Kind uint8

const (
	// KindTemperature carries a sensor-bus reading in degrees Celsius.
	KindTemperature Kind = iota + 1

	// KindState carries a digital input level.
	KindState

	// KindUpdateProgress carries firmware image transfer progress.
	KindUpdateProgress
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindState:
		return "state"
	case KindUpdateProgress:
		return "update_progress"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Measurement is one event. It is a value type; only the field matching
// Kind is meaningful.
type Measurement struct {
	Kind Kind

	// Source is the sensor's bus position or the input's channel number.
	Source int

	Temperature float64
	State       bool

	// Progress is a percentage, 0 to 100.
	Progress int

	// File names the image an UpdateProgress event belongs to.
	File string

	// Err reports a failed read or transfer. The payload is invalid when set.
	Err error
}

// Temperature returns a reading from the sensor at bus position index.
func Temperature(index int, celsius float64) Measurement {
	return Measurement{Kind: KindTemperature, Source: index, Temperature: celsius}
}

// TemperatureError returns a failed reading from the sensor at index.
func TemperatureError(index int, err error) Measurement {
	return Measurement{Kind: KindTemperature, Source: index, Err: err}
}

// State returns a digital input level on channel.
func State(channel int, on bool) Measurement {
	return Measurement{Kind: KindState, Source: channel, State: on}
}

// UpdateProgress returns a transfer progress tick for file.
func UpdateProgress(file string, percent int) Measurement {
	return Measurement{Kind: KindUpdateProgress, File: file, Progress: percent}
}

// UpdateFailed returns a terminal transfer failure for file.
func UpdateFailed(file string, err error) Measurement {
	return Measurement{Kind: KindUpdateProgress, File: file, Err: err}
}
