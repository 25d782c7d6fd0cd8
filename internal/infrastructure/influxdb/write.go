package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTemperature records one sensor reading.
func (c *Client) WriteTemperature(sensor, name string, celsius float64, ts time.Time) {
	c.write(temperaturePoint(c.deviceID, sensor, name, celsius, ts))
}

// WriteState records one digital input transition.
func (c *Client) WriteState(channel int, on bool, ts time.Time) {
	c.write(statePoint(c.deviceID, channel, on, ts))
}

// WriteStatistics records one statistics flush.
func (c *Client) WriteStatistics(counters map[string]int64, ts time.Time) {
	c.write(statisticsPoint(c.deviceID, counters, ts))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func temperaturePoint(deviceID, sensor, name string, celsius float64, ts time.Time) *write.Point {
	tags := map[string]string{
		"device": deviceID,
		"sensor": sensor,
	}
	if name != "" {
		tags["name"] = name
	}
	return write.NewPoint("temperature", tags, map[string]any{"celsius": celsius}, ts)
}

func statePoint(deviceID string, channel int, on bool, ts time.Time) *write.Point {
	return write.NewPoint(
		"input_state",
		map[string]string{
			"device":  deviceID,
			"channel": strconv.Itoa(channel),
		},
		map[string]any{"on": on},
		ts,
	)
}

func statisticsPoint(deviceID string, counters map[string]int64, ts time.Time) *write.Point {
	fields := make(map[string]any, len(counters))
	for k, v := range counters {
		fields[k] = v
	}
	return write.NewPoint("statistics", map[string]string{"device": deviceID}, fields, ts)
}
