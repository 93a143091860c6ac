// Package migrations embeds the session store schema so it compiles into
// the console binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
