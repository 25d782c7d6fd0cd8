// Package health tracks the controller's readiness signals and gates the
// confirmation of a staged firmware image on them.
//
// Four independent flags are kept: network joined, broker connected, time
// synchronised and sensor data seen. Each collaborator marks its own flag
// when it first observes readiness. Only the network and broker flags can
// be cleared again.
//
// RollbackGate confirms the running image once every flag is set and the
// baseline (first trusted wall-clock reading) is at least the grace period
// old. It confirms at most once per process.
package health
