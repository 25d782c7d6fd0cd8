// Package database provides SQLite connectivity for the controller's
// persisted settings.
//
// This package manages:
//   - Database connection with WAL mode so readers never block the committer
//   - Schema migrations embedded into the binary
//   - Connection lifecycle management
//
// The database stands in for the key/value flash partition of the board.
// The file should live on storage that survives reflashing the application
// image.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive-only: each version ships a .up.sql and a .down.sql
// named YYYYMMDD_HHMMSS_description.{up,down}.sql.
package database
