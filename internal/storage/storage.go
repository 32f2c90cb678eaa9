// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"insta_crawler/internal/model"
)

// ErrNotFound is returned when a lookup resolves to no row.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	// UpsertContent inserts or updates a record keyed by its external
	// id and returns the stored row, including its id and any assets
	// kept from a prior ingestion.
	UpsertContent(ctx context.Context, rec *model.ContentRecord) (*model.ContentRecord, error)
	GetContent(ctx context.Context, externalID string) (*model.ContentRecord, error)

	ListAssets(ctx context.Context, contentID int64, bucket string) ([]model.Asset, error)
	CreateAsset(ctx context.Context, a *model.Asset) error

	Close() error
}
