// Package migrations carries the schema migration files compiled into the
// binary, so a deployed service can never run against a schema it does not
// ship.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
