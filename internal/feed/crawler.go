package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"insta_crawler/internal/filter"
	"insta_crawler/internal/model"
)

// Crawler pages through a hashtag feed and filters each page.
type Crawler struct {
	client Client
	delay  time.Duration
	sleep  func(time.Duration)
	log    *slog.Logger
}

// NewCrawler creates a Crawler with the given inter-page delay.
func NewCrawler(client Client, delay time.Duration, log *slog.Logger) *Crawler {
	return &Crawler{
		client: client,
		delay:  delay,
		sleep:  time.Sleep,
		log:    log,
	}
}

// CrawlTag fetches the feed for tag page by page, applies the chain to
// each page's item groups and returns the accepted items. The crawl
// ends when a page carries no cursor or a group signals the stop
// condition; a request failure ends it with an error and no items.
//
// Pages are fetched strictly in sequence: each request needs the prior
// response's cursor, and the courtesy delay runs once per iteration,
// the final one included.
func (c *Crawler) CrawlTag(ctx context.Context, tag string, chain filter.Chain, fc filter.Context) ([]*model.FeedItem, error) {
	rankToken := uuid.NewString()

	var accepted []*model.FeedItem
	cursor := ""
	pages := 0

	for {
		resp, err := c.client.Request(ctx, "hashtag", "getFeed", []string{tag, rankToken, cursor})
		if err != nil {
			return nil, fmt.Errorf("fetch tag %q page: %w", tag, err)
		}
		pages++
		c.sleep(c.delay)

		stop := false
		if ranked := resp.RankedItems(); len(ranked) > 0 {
			items, s := chain.Apply(ranked, fc)
			accepted = append(accepted, items...)
			stop = stop || s
		}
		if chrono := resp.Items(); len(chrono) > 0 {
			items, s := chain.Apply(chrono, fc)
			accepted = append(accepted, items...)
			stop = stop || s
		}

		if stop || resp.NextMaxID() == "" {
			c.log.Debug("crawl finished", "tag", tag, "pages", pages, "accepted", len(accepted), "stopped", stop)
			return accepted, nil
		}
		cursor = resp.NextMaxID()
	}
}
