// Package migrations ships the session store schema inside the binary.
package migrations

import "embed"

// FS holds the golang-migrate files at its root.
//
//go:embed *.sql
var FS embed.FS
