// Package ingest orchestrates crawling, persistence and media
// attachment for feed items.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"insta_crawler/internal/feed"
	"insta_crawler/internal/filter"
	"insta_crawler/internal/media"
	"insta_crawler/internal/model"
	"insta_crawler/internal/shortcode"
	"insta_crawler/internal/storage"
)

// Service ingests feed items into the content store.
type Service struct {
	store    storage.Storage
	attacher *media.Attacher
	client   feed.Client
	crawler  *feed.Crawler
	log      *slog.Logger
}

// New creates a Service.
func New(store storage.Storage, attacher *media.Attacher, client feed.Client, crawler *feed.Crawler, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		attacher: attacher,
		client:   client,
		crawler:  crawler,
		log:      log,
	}
}

// Save upserts the item as a content record and attaches its media.
// Saving the same item again updates the record in place and leaves
// its asset set unchanged.
func (s *Service) Save(ctx context.Context, item *model.FeedItem) (*model.ContentRecord, error) {
	rec, err := s.store.UpsertContent(ctx, &model.ContentRecord{
		ExternalID: strconv.FormatInt(item.PK, 10),
		UserPK:     item.UserPK,
		Raw:        item.Raw,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert content: %w", err)
	}

	if err := s.attacher.Attach(ctx, rec, item); err != nil {
		return nil, fmt.Errorf("attach media: %w", err)
	}
	return rec, nil
}

// FetchByShortcode resolves a share code and fetches its feed item.
// It returns storage.ErrNotFound when the code resolves to nothing.
func (s *Service) FetchByShortcode(ctx context.Context, code string) (*model.FeedItem, error) {
	id, err := shortcode.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("decode shortcode: %w", err)
	}

	resp, err := s.client.Request(ctx, "media", "getInfo", []string{strconv.FormatInt(id, 10)})
	if err != nil {
		return nil, fmt.Errorf("get media info: %w", err)
	}

	items := resp.Items()
	if len(items) == 0 {
		return nil, fmt.Errorf("media %s: %w", code, storage.ErrNotFound)
	}
	return items[0], nil
}

// IngestTag crawls a hashtag feed and saves every accepted item. It
// returns the number of items saved; a failed save is logged and
// skipped, a failed crawl aborts the run.
func (s *Service) IngestTag(ctx context.Context, tag string, fc filter.Context) (int, error) {
	chain := filter.Chain{filter.NewByTags(fc.Tags)}

	items, err := s.crawler.CrawlTag(ctx, tag, chain, fc)
	if err != nil {
		return 0, fmt.Errorf("crawl tag %q: %w", tag, err)
	}

	saved := 0
	for _, item := range items {
		if _, err := s.Save(ctx, item); err != nil {
			s.log.Error("save item", "pk", item.PK, "error", err)
			continue
		}
		saved++
	}
	return saved, nil
}
