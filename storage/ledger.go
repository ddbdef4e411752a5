// SQLite upload ledger.
//
// Information Hiding:
// - Schema and connection management hidden
// - Thread-safe via sql.DB's built-in connection pooling
//
// The ledger is an audit trail of uploads (key, URL, size, expiry). It
// records nothing about conversations.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger records every upload for later auditing.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at path, creating
// parent directories if needed.
func OpenLedger(path string) (*Ledger, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	ledger := &Ledger{db: db}
	if err := ledger.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return ledger, nil
}

// NewLedgerInMemory creates an in-memory ledger (useful for testing).
func NewLedgerInMemory() (*Ledger, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}

	ledger := &Ledger{db: db}
	if err := ledger.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return ledger, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS uploads (
			key TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			byte_size INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_uploads_created
		ON uploads(created_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record stores one upload entry.
func (l *Ledger) Record(ctx context.Context, obj UploadedObject) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploads (key, url, mime_type, byte_size, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		obj.Key, obj.URL, obj.MIMEType, obj.Size, obj.Expiry.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// Recent returns the most recent uploads, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]UploadedObject, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT key, url, mime_type, byte_size, expires_at
		 FROM uploads ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var result []UploadedObject
	for rows.Next() {
		var obj UploadedObject
		var expiry int64
		if err := rows.Scan(&obj.Key, &obj.URL, &obj.MIMEType, &obj.Size, &expiry); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		obj.Expiry = time.Unix(expiry, 0)
		result = append(result, obj)
	}
	return result, rows.Err()
}

// auditedUploader wraps an Uploader and records successes in the ledger.
type auditedUploader struct {
	inner  Uploader
	ledger *Ledger
}

// WithLedger returns an uploader that records every successful upload.
// Ledger failures are ignored; auditing never blocks an upload.
func WithLedger(inner Uploader, ledger *Ledger) Uploader {
	return &auditedUploader{inner: inner, ledger: ledger}
}

func (a *auditedUploader) Upload(ctx context.Context, data []byte, mimeType, suggestedName string) (UploadedObject, error) {
	obj, err := a.inner.Upload(ctx, data, mimeType, suggestedName)
	if err != nil {
		return obj, err
	}
	_ = a.ledger.Record(ctx, obj) // Best-effort audit
	return obj, nil
}
