// Package protocol decodes remote JSON commands and applies them.
//
// Every command is a JSON object whose "id" field names it:
//
//	{"id":"setup","zonelow":2000,"zonehigh":2500}
//	{"id":"show","data":"1234","color":"green"}
//	{"id":"sensorsetup","specialsensor":"28c1cf574e13c97"}
//	{"id":"sensorfriendlyname","sensor":"28c1cf574e13c97","name":"inside"}
//	{"id":"otaupdate","file":"rgb7seg-1.4.0.bin"}
//
// Handle returns a ChangeSet naming the configuration categories the
// command changed, so the caller knows which snapshots to republish.
// Unknown commands, malformed JSON and wrong-typed fields are never
// errors: the command (or the field) is ignored and logged at debug level.
//
// Handle runs on the broker's delivery goroutine, concurrently with the
// coordinator loop.
package protocol
