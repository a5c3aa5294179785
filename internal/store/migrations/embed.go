// Package migrations embeds the SQL schema for the results store.
package migrations

import "embed"

// FS holds the migration files, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
