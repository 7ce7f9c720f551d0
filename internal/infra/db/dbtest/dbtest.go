// Package dbtest opens throwaway migrated databases for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/db"
	"gorm.io/gorm"
)

// New returns an isolated in-memory sqlite database with every table migrated.
// The database is dropped when the test ends.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	cfg := &config.Config{Database: config.DBCfg{
		Driver: db.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name),
	}}

	gdb, err := db.New(cfg)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		tb.Fatalf("migrate: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
