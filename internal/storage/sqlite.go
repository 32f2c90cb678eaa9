package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"insta_crawler/internal/model"
	"insta_crawler/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertContent inserts or updates a content row by external id and
// returns the stored row.
func (s *SQLite) UpsertContent(ctx context.Context, rec *model.ContentRecord) (*model.ContentRecord, error) {
	raw, err := marshalPayload(rec.Raw)
	if err != nil {
		return nil, fmt.Errorf("encode raw payload: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contents (external_id, user_pk, raw, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET user_pk = excluded.user_pk, raw = excluded.raw`,
		rec.ExternalID, rec.UserPK, raw, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert content: %w", err)
	}

	return s.GetContent(ctx, rec.ExternalID)
}

// GetContent returns a content row by its external id.
func (s *SQLite) GetContent(ctx context.Context, externalID string) (*model.ContentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, user_pk, raw, created_at FROM contents WHERE external_id = ?`,
		externalID,
	)

	var rec model.ContentRecord
	var raw, created string
	err := row.Scan(&rec.ID, &rec.ExternalID, &rec.UserPK, &raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan content: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &rec.Raw); err != nil {
		return nil, fmt.Errorf("decode raw payload: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	return &rec, nil
}

// ListAssets returns the assets attached to a content row, scoped to
// one bucket.
func (s *SQLite) ListAssets(ctx context.Context, contentID int64, bucket string) ([]model.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content_id, name, bucket, url, path, properties, created_at
		 FROM assets WHERE content_id = ? AND bucket = ? ORDER BY id`,
		contentID, bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		var props, created string
		if err := rows.Scan(&a.ID, &a.ContentID, &a.Name, &a.Bucket, &a.URL, &a.Path, &props, &created); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		if err := json.Unmarshal([]byte(props), &a.Properties); err != nil {
			return nil, fmt.Errorf("decode asset properties: %w", err)
		}
		a.CreatedAt, _ = time.Parse(timeLayout, created)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CreateAsset inserts a new asset and populates its ID and CreatedAt.
func (s *SQLite) CreateAsset(ctx context.Context, a *model.Asset) error {
	props, err := marshalPayload(a.Properties)
	if err != nil {
		return fmt.Errorf("encode asset properties: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assets (content_id, name, bucket, url, path, properties, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ContentID, a.Name, a.Bucket, a.URL, a.Path, props, now,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

func marshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		return "{}", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
