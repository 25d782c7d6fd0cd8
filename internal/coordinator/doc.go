// Package coordinator owns the controller's main loop.
//
// Producers (sensor bus, GPIO inputs, update downloads) post events into a
// bounded queue. Run drains it on one goroutine, waiting at most the
// statistics interval, and on every wake:
//
//  1. skips periodic work while the wall clock is implausible,
//  2. records the statistics baseline on the first plausible reading,
//  3. flushes statistics when the interval has elapsed and the broker is up,
//  4. asks the rollback gate whether the running image can be confirmed,
//  5. dispatches the dequeued event, if any.
//
// Inbound commands arrive on a second goroutine, the MQTT client's
// delivery callback, through HandleMessage. The command handler mutates
// configuration there and the returned ChangeSet selects which snapshots
// to republish. OnConnect and OnDisconnect also run on the client's
// goroutines.
package coordinator
