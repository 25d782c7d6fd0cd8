package coordinator

// Outbound message ids.
const (
	msgInfo        = "info"
	msgSetup       = "setup"
	msgColors      = "colors"
	msgSensorSetup = "sensorsetup"
	msgTempSensors = "tempsensors"
	msgTemperature = "temperature"
	msgStatistics  = "statistics"
)

// InfoMessage announces the device after every broker connect.
// Topic: <prefix>/<app>/<dev>/info (retained)
type InfoMessage struct {
	Dev         string `json:"dev"`
	ID          string `json:"id"`
	Online      bool   `json:"online"`
	MemFree     uint64 `json:"memfree"`
	GoVersion   string `json:"goversion"`
	ProgVersion string `json:"progversion"`
}

// SetupMessage mirrors the display settings.
// Topic: <prefix>/<app>/<dev>/setup (retained)
type SetupMessage struct {
	Dev      string `json:"dev"`
	ID       string `json:"id"`
	IntTemp  bool   `json:"inttemp"`
	ZoneLow  int    `json:"zonelow"`
	ZoneHigh int    `json:"zonehigh"`
}

// PaletteEntry is one selectable color.
type PaletteEntry struct {
	Name string `json:"name"`
	R    uint8  `json:"r"`
	G    uint8  `json:"g"`
	B    uint8  `json:"b"`
}

// ColorsMessage mirrors the color assignment and the palette.
// Topic: <prefix>/<app>/<dev>/colors (retained)
type ColorsMessage struct {
	Dev          string         `json:"dev"`
	ID           string         `json:"id"`
	DefaultColor string         `json:"defaultcolor"`
	LowColor     string         `json:"lowcolor"`
	HighColor    string         `json:"highcolor"`
	Available    []PaletteEntry `json:"available"`
}

// SensorSetupMessage names the diagnostic sensor.
// Topic: <prefix>/<app>/<dev>/sensorsetup (retained)
type SensorSetupMessage struct {
	Dev           string `json:"dev"`
	ID            string `json:"id"`
	SpecialSensor string `json:"specialsensor"`
}

// SensorEntry is one row of the alias table.
type SensorEntry struct {
	Sensor string `json:"sensor"`
	Name   string `json:"name"`
}

// TempSensorsMessage lists every sensor with its friendly name.
// Topic: <prefix>/<app>/<dev>/tempsensors (retained)
type TempSensorsMessage struct {
	Dev     string        `json:"dev"`
	ID      string        `json:"id"`
	Sensors []SensorEntry `json:"sensors"`
}

// TemperatureMessage is one reading.
// Topic: <prefix>/<app>/<dev>/tempsensors/<address>
type TemperatureMessage struct {
	Dev    string  `json:"dev"`
	ID     string  `json:"id"`
	Sensor string  `json:"sensor"`
	Name   string  `json:"name,omitempty"`
	Value  float64 `json:"value"`
	TS     int64   `json:"ts"`
}

// StatisticsMessage is the periodic counter flush.
// Topic: <prefix>/<app>/<dev>/statistics
type StatisticsMessage struct {
	Dev           string `json:"dev"`
	ID            string `json:"id"`
	Started       int64  `json:"started"`
	Uptime        int64  `json:"uptime"`
	SendCnt       uint64 `json:"sendcnt"`
	ConnectCnt    uint64 `json:"connectcnt"`
	DisconnectCnt uint64 `json:"disconnectcnt"`
	SensorErrors  uint64 `json:"sensorerrors"`
	MaxQueue      int    `json:"maxqueue"`
	Dropped       uint64 `json:"dropped"`
}
