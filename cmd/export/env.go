package main

import (
	"strings"

	"github.com/yungbote/logosgraph-export/internal/data/db"
	"github.com/yungbote/logosgraph-export/internal/platform/envutil"
)

func envLogMode() string { return envutil.String("LOG_MODE", "development") }

func dialectFor(backend string, def db.Dialect) db.Dialect {
	switch d := db.Dialect(strings.ToLower(backend)); d {
	case db.DialectSQLite, db.DialectPostgres:
		return d
	default:
		return def
	}
}
