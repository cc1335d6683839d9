package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Schema migrations for the governance store are compiled into the
// binary, so `govhub migrate` needs no files on disk.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the governance store up to the latest schema
// version. It runs at server boot and from the migrate subcommand; goose
// records applied versions, so reruns are no-ops.
func RunMigrations(writeDB *sql.DB) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(writeDB, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
