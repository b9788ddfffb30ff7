package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"upload-service/internal/upload"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Catalog implements upload.Catalog on Postgres.
type Catalog struct {
	db *sql.DB
}

var _ upload.Catalog = (*Catalog)(nil)

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// Record inserts rec. Re-recording an existing id is an error.
func (c *Catalog) Record(ctx context.Context, rec upload.Record) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO uploads (id, kind, filename, stored_path, size_bytes, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, string(rec.Kind), rec.Filename, rec.StoredPath, rec.SizeBytes, rec.MimeType)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns the entry for id or upload.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (upload.Entry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, kind, filename, stored_path, size_bytes, mime_type, created_at
		FROM uploads WHERE id = $1
	`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return upload.Entry{}, upload.ErrNotFound
	}
	if err != nil {
		return upload.Entry{}, fmt.Errorf("get upload %s: %w", id, err)
	}
	return e, nil
}

// List returns entries newest first.
func (c *Catalog) List(ctx context.Context, f upload.Filter) ([]upload.Entry, error) {
	limit := ClampLimit(f.Limit)

	var (
		rows *sql.Rows
		err  error
	)
	if f.Kind == "" {
		rows, err = c.db.QueryContext(ctx, `
			SELECT id, kind, filename, stored_path, size_bytes, mime_type, created_at
			FROM uploads ORDER BY created_at DESC, id LIMIT $1
		`, limit)
	} else {
		rows, err = c.db.QueryContext(ctx, `
			SELECT id, kind, filename, stored_path, size_bytes, mime_type, created_at
			FROM uploads WHERE kind = $1 ORDER BY created_at DESC, id LIMIT $2
		`, string(f.Kind), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]upload.Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return entries, nil
}

// Ping checks connectivity.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// ClampLimit maps non-positive limits to the default and caps large ones.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	default:
		return n
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (upload.Entry, error) {
	var (
		e    upload.Entry
		kind string
	)
	err := s.Scan(&e.ID, &kind, &e.Filename, &e.StoredPath, &e.SizeBytes, &e.MimeType, &e.CreatedAt)
	if err != nil {
		return upload.Entry{}, err
	}
	e.Kind = upload.Kind(kind)
	e.Message = "uploaded"
	return e, nil
}
