// Package media maps a feed item's media payload onto a content
// record's asset set.
package media

import (
	"context"
	"fmt"
	"log/slog"

	"insta_crawler/internal/assets"
	"insta_crawler/internal/model"
	"insta_crawler/internal/storage"
)

// Attacher fetches and attaches a feed item's media assets.
type Attacher struct {
	assets assets.Store
	store  storage.Storage
	log    *slog.Logger
}

// New creates an Attacher.
func New(store storage.Storage, assetStore assets.Store, log *slog.Logger) *Attacher {
	return &Attacher{
		assets: assetStore,
		store:  store,
		log:    log,
	}
}

// Attach populates the record's asset set from the item's media
// payload. The set of already-attached media names is snapshotted once
// before any attachment; every slot in this call, carousel entries
// included, is checked against that same snapshot. A failed or skipped
// slot never fails the call, the record just ends up without that
// asset.
func (a *Attacher) Attach(ctx context.Context, rec *model.ContentRecord, item *model.FeedItem) error {
	existing, err := a.store.ListAssets(ctx, rec.ID, model.BucketMedia)
	if err != nil {
		return fmt.Errorf("list current media: %w", err)
	}
	current := make(map[string]bool, len(existing))
	for _, asset := range existing {
		current[asset.Name] = true
	}

	switch item.MediaType {
	case model.MediaTypeImage:
		a.attachImage(ctx, rec, item.ImageVersions, item.ID, model.BucketMedia, current)
	case model.MediaTypeVideo:
		a.attachVideo(ctx, rec, item.ImageVersions, item.VideoVersions, item.ID, current)
	case model.MediaTypeCarousel:
		for i := range item.CarouselMedia {
			entry := &item.CarouselMedia[i]
			switch entry.MediaType {
			case model.MediaTypeImage:
				a.attachImage(ctx, rec, entry.ImageVersions, entry.ID, model.BucketMedia, current)
			case model.MediaTypeVideo:
				a.attachVideo(ctx, rec, entry.ImageVersions, entry.VideoVersions, entry.ID, current)
			}
		}
	}
	return nil
}

// attachImage stores the top image candidate as an asset named name.
// It returns nil without side effects when the name is already
// attached or no usable candidate exists.
func (a *Attacher) attachImage(ctx context.Context, rec *model.ContentRecord, images []model.MediaCandidate, name, bucket string, current map[string]bool) *model.Asset {
	if current[name] || len(images) == 0 || images[0].URL == "" {
		return nil
	}

	asset, err := a.assets.StoreFromURL(ctx, rec, images[0].URL, name, bucket, candidateProperties(images))
	if err != nil {
		a.log.Warn("store image asset", "content_id", rec.ID, "name", name, "bucket", bucket, "error", err)
		return nil
	}
	return asset
}

// attachVideo stores the cover image first, then the top video
// candidate under the media bucket. The video is attached only if the
// cover attach produced an asset; its properties carry a back-reference
// to that cover.
func (a *Attacher) attachVideo(ctx context.Context, rec *model.ContentRecord, images, videos []model.MediaCandidate, name string, current map[string]bool) *model.Asset {
	cover := a.attachImage(ctx, rec, images, name, model.BucketCover, current)
	if cover == nil || current[name] || len(videos) == 0 || videos[0].URL == "" {
		return nil
	}

	props := candidateProperties(images)
	props["cover"] = map[string]any{
		"collection": model.BucketCover,
		"id":         cover.ID,
	}

	asset, err := a.assets.StoreFromURL(ctx, rec, videos[0].URL, name, model.BucketMedia, props)
	if err != nil {
		a.log.Warn("store video asset", "content_id", rec.ID, "name", name, "error", err)
		return nil
	}
	return asset
}

// candidateProperties renders the source image descriptor as the
// asset's custom properties payload.
func candidateProperties(images []model.MediaCandidate) map[string]any {
	list := make([]any, 0, len(images))
	for _, c := range images {
		list = append(list, map[string]any{
			"url":    c.URL,
			"width":  c.Width,
			"height": c.Height,
		})
	}
	return map[string]any{"candidates": list}
}
