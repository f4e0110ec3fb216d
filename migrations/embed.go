// Package migrations embeds the SQL schema migrations so the binaries and
// integration tests run the same files.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair
//
//go:embed *.sql
var FS embed.FS
