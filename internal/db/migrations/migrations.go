// Package migrations embeds the goose SQL migration files applied to both
// the credential and stats databases at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
