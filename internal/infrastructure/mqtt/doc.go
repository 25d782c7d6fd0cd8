// Package mqtt provides the controller's publish/subscribe link.
//
// This package manages:
//   - Connection to the broker with background retry and auto-reconnect
//   - Fire-and-forget publishing at the configured QoS
//   - Subscriptions that are tracked and restored after every reconnect
//   - Last Will and Testament so consumers see the device go offline
//   - Topic addressing derived from prefix, application and device id
//
// # Topic layout
//
// Every topic is {prefix}/{app}/{device}/{suffix}, where device is the last
// three bytes of the hardware MAC as six zero-padded lowercase hex digits:
//
//	home/esp/rgb7seg/0a1b2c/info
//	home/esp/rgb7seg/0a1b2c/setsetup
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.MQTT.Prefix, cfg.Device.AppName, deviceID)
//	client := mqtt.New(cfg.MQTT, topics)
//	client.SetOnConnect(func() { ... })
//	if err := client.Subscribe(topics.SetSetup(), 0, handler); err != nil {
//	    log.Fatal(err)
//	}
//	client.Start()
//	defer client.Close()
//
// Start does not wait for the broker. The connect callback fires whenever a
// session is (re)established, and subscriptions registered earlier are
// sent at that point.
package mqtt
