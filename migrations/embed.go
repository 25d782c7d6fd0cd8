// Package migrations embeds the settings schema into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
