// Package settings holds the controller's persisted configuration.
//
// Model is the in-memory copy: zone boundaries, color assignments, the
// diagnostic sensor and the internal-temperature display switch. Every
// setter skips a write when the value is unchanged, so repeated commands
// cost no storage wear. Changed values are written to the Store and become
// durable on Commit.
//
// Store is the key/value persistence contract. SQLiteStore implements it
// over the settings table; writes are buffered until Commit, which applies
// them in one transaction.
//
// Persistence failures never roll back the in-memory value. They are
// logged, and the next accepted change writes again.
package settings
