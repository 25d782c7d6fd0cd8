package coordinator

import (
	"encoding/json"
	"runtime"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/display"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/health"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/protocol"
)

// OnConnect announces the device after every broker connect.
// It runs on the MQTT client's connect goroutine.
func (c *Coordinator) OnConnect() {
	c.stats.AddConnect()
	c.tracker.Mark(health.BrokerConnected)
	c.display.Show("mqtt", "")
	c.logger.Info("broker connected", "connects", c.stats.Connects())

	c.publishInfo()
	c.publishSetup()
	c.publishColors()
	c.publishSensorSetup()
	c.publishTempSensors()

	if c.sensors != nil {
		c.sensors.ReadNow()
	}
}

// OnDisconnect records a lost broker connection.
func (c *Coordinator) OnDisconnect(err error) {
	c.stats.AddDisconnect()
	c.tracker.Clear(health.BrokerConnected)
	c.logger.Warn("broker connection lost", "error", err)
}

// HandleMessage applies an inbound command and republishes whatever it
// changed. It runs on the MQTT client's delivery goroutine.
func (c *Coordinator) HandleMessage(topic string, payload []byte) error {
	cs := c.handler.Handle(payload)
	c.logger.Debug("command handled", "topic", topic, "changed", cs.String())
	c.republish(cs)
	return nil
}

// republish sends the snapshot of every category in cs.
func (c *Coordinator) republish(cs protocol.ChangeSet) {
	if cs.Has(protocol.CategoryMisc) {
		c.publishSetup()
	}
	if cs.Has(protocol.CategoryColors) {
		c.publishColors()
	}
	if cs.Has(protocol.CategorySensors) {
		c.publishSensorSetup()
	}
	if cs.Has(protocol.CategoryNames) {
		c.publishTempSensors()
	}
}

// publish marshals v and sends it, counting every accepted message as a
// send. Failures are logged, never retried.
func (c *Coordinator) publish(topic string, v any, retained bool) {
	if !c.pub.IsConnected() {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("encoding message failed", "topic", topic, "error", err)
		return
	}
	if err := c.pub.Publish(topic, payload, c.qos, retained); err != nil {
		c.logger.Warn("publish failed", "topic", topic, "error", err)
		return
	}
	c.stats.AddSend()
}

func (c *Coordinator) publishInfo() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.publish(c.topics.Info(), InfoMessage{
		Dev:         c.topics.DeviceID,
		ID:          msgInfo,
		Online:      true,
		MemFree:     ms.HeapIdle - ms.HeapReleased,
		GoVersion:   runtime.Version(),
		ProgVersion: c.version,
	}, true)
}

func (c *Coordinator) publishSetup() {
	cfg := c.model.Snapshot()
	c.publish(c.topics.Setup(), SetupMessage{
		Dev:      c.topics.DeviceID,
		ID:       msgSetup,
		IntTemp:  cfg.ShowInternal,
		ZoneLow:  cfg.ZoneLow,
		ZoneHigh: cfg.ZoneHigh,
	}, true)
}

func (c *Coordinator) publishColors() {
	cfg := c.model.Snapshot()
	palette := display.Palette()
	available := make([]PaletteEntry, len(palette))
	for i, nc := range palette {
		available[i] = PaletteEntry{Name: nc.Name, R: nc.Color.R, G: nc.Color.G, B: nc.Color.B}
	}
	c.publish(c.topics.Colors(), ColorsMessage{
		Dev:          c.topics.DeviceID,
		ID:           msgColors,
		DefaultColor: cfg.DefaultColor,
		LowColor:     cfg.LowColor,
		HighColor:    cfg.HighColor,
		Available:    available,
	}, true)
}

func (c *Coordinator) publishSensorSetup() {
	c.publish(c.topics.SensorSetup(), SensorSetupMessage{
		Dev:           c.topics.DeviceID,
		ID:            msgSensorSetup,
		SpecialSensor: c.model.Snapshot().DiagnosticSensor,
	}, true)
}

func (c *Coordinator) publishTempSensors() {
	entries := []SensorEntry{}
	if c.sensors != nil {
		for _, s := range c.sensors.Sensors() {
			entries = append(entries, SensorEntry{Sensor: s.Address, Name: s.Name})
		}
	}
	c.publish(c.topics.TempSensors(), TempSensorsMessage{
		Dev:     c.topics.DeviceID,
		ID:      msgTempSensors,
		Sensors: entries,
	}, true)
}
