// Package migrations embeds the SQL migrations golang-migrate applies to
// a PostgreSQL backend when store.PostgresConfig.MigrationsPath is set.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
