package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	apperrors "ilgcli/internal/errors"
)

const (
	driverName  = "sqlite"
	pingTimeout = 5 * time.Second
)

// Store is a read-only handle on the lead scoring database.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens the SQLite database at path in read-only mode. The file is
// never created; callers check that it exists first.
func Open(ctx context.Context, path string) (*Store, error) {
	// modernc sqlite DSN: mode=ro refuses to create or write the file
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("open database", err).
			WithContext(apperrors.ContextKeyPath, path)
	}

	// one reader is all a single export needs
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("connect to database", err).
			WithContext(apperrors.ContextKeyPath, path)
	}

	return &Store{path: path, db: db}, nil
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
