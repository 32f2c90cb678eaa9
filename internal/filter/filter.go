// Package filter implements the crawl item filter chain.
package filter

import (
	"insta_crawler/internal/model"
)

// Context carries the criteria for one crawl. It must not be modified
// once the crawl has started.
type Context struct {
	// MinTakenAt is an epoch-seconds lower bound. Zero means unbounded.
	MinTakenAt int64
	// Tags is the required tag set, in any accepted spelling; stages
	// normalize before matching.
	Tags []string
}

// Stage evaluates one item. It returns the item (possibly transformed)
// to pass it along, or nil to veto it. Stages never end the crawl;
// only the chain's time-bound check does.
type Stage interface {
	Evaluate(item *model.FeedItem) *model.FeedItem
}

// Chain is an ordered sequence of stages applied to each item.
type Chain []Stage

// Apply runs every item in the batch through the chain and returns the
// accepted items in input order. When an item falls below the context's
// minimum timestamp the batch is cut short and stop is true: pages are
// time-ordered, so every later item is older still.
func (c Chain) Apply(items []*model.FeedItem, fc Context) (accepted []*model.FeedItem, stop bool) {
	for _, item := range items {
		if fc.MinTakenAt > 0 && item.TakenAt < fc.MinTakenAt {
			return accepted, true
		}

		out := item
		for _, stage := range c {
			out = stage.Evaluate(out)
			if out == nil {
				break
			}
		}
		if out != nil {
			accepted = append(accepted, out)
		}
	}
	return accepted, false
}

// ByTags vetoes items whose caption does not contain every required tag.
type ByTags struct {
	tags []string
}

// NewByTags builds a tag stage. Required tags are normalized once:
// lowercased, a single leading '#' each.
func NewByTags(tags []string) *ByTags {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized = append(normalized, model.NormalizeTag(tag))
	}
	return &ByTags{tags: normalized}
}

// Evaluate passes the item only if its tag set is a superset of the
// required tags.
func (b *ByTags) Evaluate(item *model.FeedItem) *model.FeedItem {
	if item == nil {
		return nil
	}

	itemTags := make(map[string]bool)
	for _, tag := range item.Hashtags() {
		itemTags[tag] = true
	}

	for _, tag := range b.tags {
		if !itemTags[tag] {
			return nil
		}
	}
	return item
}
