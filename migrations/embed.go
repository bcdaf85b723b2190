// Package migrations embeds the SQL schema migrations for the dataset
// state database. Files are applied in name order by goose at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
