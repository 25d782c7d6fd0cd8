package coordinator

import "time"

// flushStatistics publishes the counters and mirrors them to telemetry.
func (c *Coordinator) flushStatistics(now time.Time) {
	snap := c.stats.Snapshot(c.tracker.Baseline(), now, c.queue)

	c.publish(c.topics.Statistics(), StatisticsMessage{
		Dev:           c.topics.DeviceID,
		ID:            msgStatistics,
		Started:       snap.Started.Unix(),
		Uptime:        int64(snap.Uptime / time.Second),
		SendCnt:       snap.Sends,
		ConnectCnt:    snap.Connects,
		DisconnectCnt: snap.Disconnects,
		SensorErrors:  snap.SensorErrors,
		MaxQueue:      snap.QueueHighMark,
		Dropped:       snap.QueueDropped,
	}, false)

	if c.telemetry != nil {
		c.telemetry.WriteStatistics(snap.Fields(), now)
	}
	c.logger.Debug("statistics flushed", "uptime", snap.Uptime, "sends", snap.Sends)
}
