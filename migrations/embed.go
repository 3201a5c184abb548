// Package migrations embeds the SQL migration files so the binary can
// migrate its own schema at startup.
package migrations

import "embed"

//go:embed postgres/*.sql
var FS embed.FS
