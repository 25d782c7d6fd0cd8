package mqtt

import (
	"fmt"
	"net"
)

// Topic suffixes. Consumers pattern-match on these, so they are fixed.
const (
	SuffixInfo        = "info"
	SuffixSetup       = "setup"
	SuffixColors      = "colors"
	SuffixSensorSetup = "sensorsetup"
	SuffixTempSensors = "tempsensors"
	SuffixData        = "data"
	SuffixSetSetup    = "setsetup"
	SuffixOTAUpdate   = "otaupdate"
	SuffixStatistics  = "statistics"
)

// Topics builds the topic names of one device.
//
//	topics := mqtt.NewTopics("home/esp", "rgb7seg", "0a1b2c")
//	topics.Info() // "home/esp/rgb7seg/0a1b2c/info"
type Topics struct {
	Prefix   string
	App      string
	DeviceID string
}

// NewTopics returns the topic builder for a device.
func NewTopics(prefix, app, deviceID string) Topics {
	return Topics{Prefix: prefix, App: app, DeviceID: deviceID}
}

// DeviceIDFromMAC formats the last three bytes of mac as six zero-padded
// lowercase hex digits.
func DeviceIDFromMAC(mac net.HardwareAddr) (string, error) {
	if len(mac) < 3 {
		return "", ErrInvalidMAC
	}
	n := len(mac)
	return fmt.Sprintf("%02x%02x%02x", mac[n-3], mac[n-2], mac[n-1]), nil
}

func (t Topics) topic(suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix, t.App, t.DeviceID, suffix)
}

// =============================================================================
// Outbound
// =============================================================================

// Info is the retained presence and version topic. It also carries the last will.
func (t Topics) Info() string { return t.topic(SuffixInfo) }

// Setup carries zone and display-mode settings.
func (t Topics) Setup() string { return t.topic(SuffixSetup) }

// Colors carries color assignments and the available palette.
func (t Topics) Colors() string { return t.topic(SuffixColors) }

// SensorSetup carries the diagnostic sensor selection.
func (t Topics) SensorSetup() string { return t.topic(SuffixSensorSetup) }

// TempSensors carries the sensor list with friendly names.
func (t Topics) TempSensors() string { return t.topic(SuffixTempSensors) }

// TempSensor carries readings of one sensor.
//
// Example: home/esp/rgb7seg/0a1b2c/tempsensors/28c1cf574e13c97
func (t Topics) TempSensor(address string) string {
	return t.topic(SuffixTempSensors + "/" + address)
}

// OTAStatus carries update progress. It sits below the inbound otaupdate
// topic so progress reports are never read back as commands.
func (t Topics) OTAStatus() string { return t.topic(SuffixOTAUpdate + "/status") }

// Statistics carries the periodic counters flush.
func (t Topics) Statistics() string { return t.topic(SuffixStatistics) }

// =============================================================================
// Inbound
// =============================================================================

// SetSetup receives configuration commands.
func (t Topics) SetSetup() string { return t.topic(SuffixSetSetup) }

// OTAUpdate receives update commands.
func (t Topics) OTAUpdate() string { return t.topic(SuffixOTAUpdate) }

// Data receives show and sensor commands.
func (t Topics) Data() string { return t.topic(SuffixData) }

// Inbound returns every topic the device subscribes to.
func (t Topics) Inbound() []string {
	return []string{t.SetSetup(), t.OTAUpdate(), t.Data()}
}
