// Package sqlite implements the entity store on a single SQLite file using
// the pure-Go modernc driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Togather-Foundation/eventreg/internal/domain/errs"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DefaultPath is used when no database URL is configured.
const DefaultPath = "data/database.db"

// ErrReferenceNotFound is returned when a registration names a user or event
// that does not exist. SQLite does not report which reference failed.
var ErrReferenceNotFound = errs.New(errs.ErrNotFound, "referenced user or event not found")

// Open opens the database named by dsn, creating its parent directory when
// needed. dsn may be a plain path, a file: URI or ":memory:".
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	normalized, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", normalized)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writes and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// normalizeDSN turns dsn into a file: URI with foreign keys enabled.
func normalizeDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultPath
	}

	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path != ":memory:" && path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("parse sqlite dsn: %w", err)
	}
	pragmas := values["_pragma"]
	for _, pragma := range []string{"foreign_keys(1)", "busy_timeout(5000)"} {
		name, _, _ := strings.Cut(pragma, "(")
		if !hasPragma(pragmas, name) {
			values.Add("_pragma", pragma)
		}
	}
	return "file:" + path + "?" + values.Encode(), nil
}

func hasPragma(pragmas []string, name string) bool {
	for _, p := range pragmas {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(p)), name) {
			return true
		}
	}
	return false
}

// translateError maps constraint violations onto domain errors.
func translateError(err error, conflict error) (error, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return nil, false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return conflict, true
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ErrReferenceNotFound, true
	}
	// Primary result code only; fall back to the message.
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return conflict, true
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrReferenceNotFound, true
	}
	return nil, false
}
