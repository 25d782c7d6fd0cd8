// Package influxdb mirrors controller telemetry into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Telemetry is optional:
// when influxdb.enabled is false, Connect returns ErrDisabled and the
// controller runs without it.
//
// # Measurements
//
//   - temperature: tags device, sensor, name; field celsius
//   - input_state: tags device, channel; field on
//   - statistics: tag device; one integer field per counter
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, deviceID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
//	client.WriteTemperature("28c1cf574e13c97", "inside", 21.5, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched; failures surface through the SetOnError callback.
package influxdb
