// Package assets downloads media files and records them as assets.
package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"insta_crawler/internal/model"
	"insta_crawler/internal/storage"
)

// Doer is the interface for performing HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Store fetches a remote asset and attaches it to a content record.
type Store interface {
	StoreFromURL(ctx context.Context, rec *model.ContentRecord, rawURL, name, bucket string, props map[string]any) (*model.Asset, error)
}

const maxAssetSize = 50 * 1024 * 1024

// DiskStore implements Store by writing files under a local root and
// recording asset rows in Storage. Downloads go through a token-bucket
// limiter so bulk ingestion does not hammer the CDN.
type DiskStore struct {
	doer    Doer
	store   storage.Storage
	root    string
	limiter *rate.Limiter
}

// NewDiskStore creates a DiskStore rooted at root.
func NewDiskStore(doer Doer, store storage.Storage, root string) *DiskStore {
	return &DiskStore{
		doer:    doer,
		store:   store,
		root:    root,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// StoreFromURL downloads rawURL, writes it under the bucket directory
// and inserts the asset row. The returned asset carries its row id.
// The name comes from the remote payload and must be a plain file name;
// anything that would resolve outside the bucket directory is rejected.
func (d *DiskStore) StoreFromURL(ctx context.Context, rec *model.ContentRecord, rawURL, name, bucket string, props map[string]any) (*model.Asset, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	data, err := d.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	filePath := filepath.Join(d.root, bucket, name+extFromURL(rawURL))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write asset file: %w", err)
	}

	asset := &model.Asset{
		ContentID:  rec.ID,
		Name:       name,
		Bucket:     bucket,
		URL:        rawURL,
		Path:       filePath,
		Properties: props,
	}
	if err := d.store.CreateAsset(ctx, asset); err != nil {
		_ = os.Remove(filePath)
		return nil, fmt.Errorf("record asset: %w", err)
	}
	return asset, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid asset name %q", name)
	}
	return nil
}

func (d *DiskStore) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; insta-crawler/1.0)")

	resp, err := d.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".bin"
	}
	ext := path.Ext(u.Path)
	if ext == "" || len(ext) > 5 {
		return ".bin"
	}
	return ext
}

// EnsureFolders creates the storage root and its bucket directories.
// It is a no-op when they already exist.
func EnsureFolders(root string) error {
	for _, dir := range []string{root, filepath.Join(root, model.BucketMedia), filepath.Join(root, model.BucketCover)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	return nil
}
