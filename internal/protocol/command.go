package protocol

// CommandID is a recognised command.
type CommandID int

const (
	CommandUnknown CommandID = iota
	CommandOTAUpdate
	CommandSetup
	CommandShow
	CommandSensorSetup
	CommandSensorFriendlyName
)

var commandNames = map[string]CommandID{
	"otaupdate":          CommandOTAUpdate,
	"setup":              CommandSetup,
	"show":               CommandShow,
	"sensorsetup":        CommandSensorSetup,
	"sensorfriendlyname": CommandSensorFriendlyName,
}

// ParseCommandID maps a wire id to a CommandID. Matching is exact.
func ParseCommandID(s string) CommandID {
	return commandNames[s]
}

// String returns the wire id.
func (c CommandID) String() string {
	for name, id := range commandNames {
		if id == c {
			return name
		}
	}
	return "unknown"
}
