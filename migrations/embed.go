// Package migrations bundles the SQL schema migrations into the binary so
// the server and the migrate tool do not depend on the working directory.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file in this directory
//
//go:embed *.sql
var FS embed.FS
