// Package migrations holds the schema history as goose Go migrations so the
// binary carries its own schema for both SQLite and PostgreSQL.
package migrations

import (
	"github.com/pressly/goose/v3"
)

// All returns every migration in version order
func All() []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: upInitialSchema},
			&goose.GoFunc{RunTx: downInitialSchema},
		),
	}
}
