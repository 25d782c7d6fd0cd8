// rgb7segd - RGB seven-segment display controller
//
// This is the main entry point for the controller daemon. It reads a
// 1-Wire temperature bus and optional GPIO inputs, mirrors one sensor on
// the display with zone-based colors, reports readings and device health
// over MQTT, accepts remote JSON configuration commands and confirms a
// staged firmware image once the device has proven healthy.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"periph.io/x/host/v3"

	_ "github.com/nerrad567/gray-logic-rgb7seg/migrations"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/coordinator"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/display"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/health"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/clock"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/inputs"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/link"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/protocol"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/sensorbus"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/settings"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/stats"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/timesync"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/update"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command-line flags.
type options struct {
	configPath  string
	showVersion bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("rgb7segd", pflag.ContinueOnError)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: command-line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Printf("rgb7segd %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	log := logging.Default()
	log.Info("starting rgb7segd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath(opts.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	// Sensor bus and inputs need the periph host drivers. A host without
	// them still runs the rest of the controller.
	hardware := true
	if _, hostErr := host.Init(); hostErr != nil {
		log.Warn("periph host init failed, hardware disabled", "error", hostErr)
		hardware = false
	}

	deviceID, err := resolveDeviceID(cfg.Device)
	if err != nil {
		return fmt.Errorf("resolving device id: %w", err)
	}
	log = log.With("device", deviceID)

	// Persisted settings
	db, err := database.Open(ctx, cfg.Settings)
	if err != nil {
		return fmt.Errorf("opening settings database: %w", err)
	}
	defer func() {
		log.Info("closing settings database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing settings database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	model := settings.Load(settings.NewSQLiteStore(db.DB), log)
	log.Info("settings loaded", "path", db.Path())

	policy := display.NewPolicy(model, display.NewLogRenderer(log), log)
	policy.Show("init", "")

	tracker := health.NewTracker()
	queue := event.NewQueue(cfg.Coordinator.QueueCapacity)
	counters := &stats.Counters{}

	topics := mqtt.NewTopics(cfg.MQTT.Prefix, cfg.Device.AppName, deviceID)
	mqttClient := mqtt.New(cfg.MQTT, topics)
	mqttClient.SetLogger(log)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	influxClient, err := connectInflux(ctx, cfg, deviceID, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	var bus *sensorbus.Bus
	if cfg.SensorBus.Enabled && hardware {
		bus, err = openSensorBus(cfg.SensorBus, queue, model, log)
		if err != nil {
			log.Warn("sensor bus unavailable", "error", err)
			bus = nil
		}
	}

	updater := update.New(cfg.Update, update.Options{
		Poster:      queue,
		Publisher:   mqttClient,
		StatusTopic: topics.OTAStatus(),
		DeviceID:    deviceID,
		QoS:         mqttClient.QoS(),
		Version:     version,
		Logger:      log,
	})
	defer updater.Close()

	deps := protocol.Deps{Model: model, Display: policy, Updater: updater, Logger: log}
	coordOpts := coordinator.Options{
		Queue:              queue,
		Clock:              clock.Real(),
		Tracker:            tracker,
		Gate:               health.NewRollbackGate(tracker, updater, cfg.Coordinator.RollbackGrace),
		Model:              model,
		Display:            policy,
		Publisher:          mqttClient,
		Topics:             topics,
		QoS:                mqttClient.QoS(),
		Updater:            updater,
		Stats:              counters,
		StatisticsInterval: cfg.Coordinator.StatisticsInterval,
		MinEpoch:           cfg.TimeSync.MinEpoch,
		Version:            version,
		Logger:             log,
	}
	if bus != nil {
		deps.Aliases = bus
		coordOpts.Sensors = bus
	}
	if influxClient != nil {
		coordOpts.Telemetry = influxClient
	}
	coordOpts.Handler = protocol.NewHandler(deps)
	coord := coordinator.New(coordOpts)

	mqttClient.SetOnConnect(coord.OnConnect)
	mqttClient.SetOnDisconnect(coord.OnDisconnect)
	for _, topic := range topics.Inbound() {
		if subErr := mqttClient.Subscribe(topic, mqttClient.QoS(), coord.HandleMessage); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
	}
	if startErr := mqttClient.Start(); startErr != nil {
		return fmt.Errorf("starting MQTT: %w", startErr)
	}
	log.Info("MQTT client started",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"prefix", topics.Prefix,
	)

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	spawn(func() { coord.Run(ctx) })

	linkWatcher := link.NewWatcher(link.InterfaceProbe(cfg.Network.Interface), tracker, link.Options{
		Interval: cfg.Network.PollInterval,
		OnJoin:   func() { policy.Show("lan", "") },
		Logger:   log,
	})
	spawn(func() { linkWatcher.Run(ctx) })

	timeWatcher := timesync.NewWatcher(tracker, timesync.Options{
		MinEpoch:   cfg.TimeSync.MinEpoch,
		MarkerFile: cfg.TimeSync.MarkerFile,
		Interval:   cfg.TimeSync.PollInterval,
		OnSync: func() {
			if bus != nil {
				bus.ReadNow()
			}
		},
		Logger: log,
	})
	spawn(func() { timeWatcher.Run(ctx) })

	if bus != nil {
		spawn(func() { bus.Run(ctx) })
	}

	if len(cfg.Inputs) > 0 && hardware {
		watcher, inErr := buildInputs(cfg.Inputs, queue, log)
		if inErr != nil {
			return inErr
		}
		spawn(func() {
			if runErr := watcher.Run(ctx); runErr != nil {
				log.Error("input watcher stopped", "error", runErr)
			}
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	wg.Wait()
	log.Info("rgb7segd stopped")
	return nil
}

// getConfigPath returns the configuration file path: the --config flag,
// else RGB7SEG_CONFIG, else the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("RGB7SEG_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// resolveDeviceID returns the configured id, or derives one from the MAC
// address of the configured (or first suitable) interface.
func resolveDeviceID(cfg config.DeviceConfig) (string, error) {
	if cfg.ID != "" {
		return strings.ToLower(cfg.ID), nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("listing interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if cfg.Interface != "" && iface.Name != cfg.Interface {
			continue
		}
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) < 3 {
			continue
		}
		return mqtt.DeviceIDFromMAC(iface.HardwareAddr)
	}
	if cfg.Interface != "" {
		return "", fmt.Errorf("interface %q not found or has no MAC", cfg.Interface)
	}
	return "", errors.New("no interface with a MAC address; set device.id")
}

// connectInflux returns nil when telemetry is disabled.
func connectInflux(ctx context.Context, cfg *config.Config, deviceID string, log *logging.Logger) (*influxdb.Client, error) {
	client, err := influxdb.Connect(ctx, cfg.InfluxDB, deviceID)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	return client, nil
}

func openSensorBus(cfg config.SensorBusConfig, poster event.Poster, model *settings.Model, log *logging.Logger) (*sensorbus.Bus, error) {
	probe, err := sensorbus.OpenDS18B20(cfg.Bus, cfg.Resolution)
	if err != nil {
		return nil, err
	}
	bus := sensorbus.New(probe, poster, sensorbus.Options{
		Interval:   cfg.PollInterval,
		MaxSensors: cfg.MaxSensors,
		Logger:     log,
	})
	if err := bus.Scan(model.StoredAlias); err != nil {
		if !errors.Is(err, sensorbus.ErrNoSensors) {
			probe.Close() //nolint:errcheck // already failing
			return nil, err
		}
		log.Warn("no temperature sensors found")
	}
	return bus, nil
}

func buildInputs(cfgs []config.InputConfig, poster event.Poster, log *logging.Logger) (*inputs.Watcher, error) {
	list := make([]inputs.Input, 0, len(cfgs))
	for _, ic := range cfgs {
		pin, err := inputs.Resolve(ic.Pin)
		if err != nil {
			return nil, fmt.Errorf("input channel %d: %w", ic.Channel, err)
		}
		list = append(list, inputs.Input{Pin: pin, Channel: ic.Channel, PullUp: ic.PullUp})
	}
	return inputs.NewWatcher(list, poster, log), nil
}
