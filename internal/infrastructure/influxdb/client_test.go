package influxdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/config"
)

func lineProtocol(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Second)
}

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(context.Background(), config.InfluxDBConfig{Enabled: false}, "0a1b2c")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:59999",
		Token:   "t",
		Org:     "o",
		Bucket:  "b",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, cfg, "0a1b2c")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestTemperaturePoint(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	line := lineProtocol(temperaturePoint("0a1b2c", "28c1cf574e13c97", "inside", 21.5, ts))

	for _, want := range []string{"temperature,", "device=0a1b2c", "sensor=28c1cf574e13c97", "name=inside", "celsius=21.5", "1700000000"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestTemperaturePoint_NoName(t *testing.T) {
	line := lineProtocol(temperaturePoint("0a1b2c", "28aa", "", 20, time.Unix(1, 0)))
	if strings.Contains(line, "name=") {
		t.Errorf("line %q has a name tag for an unnamed sensor", line)
	}
}

func TestStatePoint(t *testing.T) {
	line := lineProtocol(statePoint("0a1b2c", 3, true, time.Unix(1, 0)))

	for _, want := range []string{"input_state,", "channel=3", "on=true"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestStatisticsPoint(t *testing.T) {
	line := lineProtocol(statisticsPoint("0a1b2c", map[string]int64{"sendcnt": 12, "dropped": 0}, time.Unix(1, 0)))

	for _, want := range []string{"statistics,device=0a1b2c", "sendcnt=12i", "dropped=0i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestWrite_AfterCloseIsNoop(t *testing.T) {
	// A zero client is not connected; writes must not touch the nil write API.
	c := &Client{deviceID: "0a1b2c"}
	c.WriteTemperature("28aa", "", 20, time.Now())
	c.WriteState(1, true, time.Now())
	c.WriteStatistics(map[string]int64{"sendcnt": 1}, time.Now())

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
}
