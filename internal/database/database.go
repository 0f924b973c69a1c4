package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"rostering_backend/internal/config"
	"rostering_backend/pkg/utils"
)

//go:embed schema.sql
var schemaSQL string

const dropSQL = `DROP TABLE IF EXISTS shift_reports, attendance_records, shifts, rosters, users CASCADE`

// Open connects to PostgreSQL, applies pool limits and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"host": cfg.Host, "db": cfg.Name})
	return db, nil
}

// ApplySchema creates any missing tables and indexes. It is idempotent.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied")
	return nil
}

// ResetSchema drops every table owned by the application and recreates them.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("could not drop schema: %w", err)
	}
	return ApplySchema(ctx, db)
}

// WithTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
