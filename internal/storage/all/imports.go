// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "healthetl/internal/storage/all"
//
// after which storage.New and storage.EnsureTable accept the kinds
// "sqlite", "postgres", "mssql" and "mysql".
package all

import (
	_ "healthetl/internal/storage/mssql"
	_ "healthetl/internal/storage/mysql"
	_ "healthetl/internal/storage/postgres"
	_ "healthetl/internal/storage/sqlite"
)
