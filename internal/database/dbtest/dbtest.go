// Package dbtest opens throwaway SQLite databases carrying the storefront schema.
package dbtest

import (
	"context"
	"database/sql"
	"testing"

	"storefront/internal/database"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

// New returns an in-memory SQLite database with every table created.
func New(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// every pooled connection would get its own empty :memory: database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	if err := database.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { _ = bunDB.Close() })
	return bunDB
}
