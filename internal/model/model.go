// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
	"unicode"
)

// Media type discriminants used by the remote feed API.
const (
	MediaTypeImage    = 1
	MediaTypeVideo    = 2
	MediaTypeCarousel = 8
)

// Asset buckets within a content record.
const (
	BucketMedia = "media"
	BucketCover = "cover"
)

// MediaCandidate is one download option for a media asset.
// Candidates are ordered best-first; index 0 is the one to fetch.
type MediaCandidate struct {
	URL    string
	Width  int
	Height int
}

// FeedItem is the remote representation of one content unit, produced
// per crawl page and discarded after ingestion. Raw holds the decoded
// API payload verbatim and is never interpreted by the pipeline.
type FeedItem struct {
	ID            string
	PK            int64
	UserPK        int64
	MediaType     int
	TakenAt       int64
	Caption       string
	ImageVersions []MediaCandidate
	VideoVersions []MediaCandidate
	CarouselMedia []FeedItem
	Raw           map[string]any
}

// Hashtags returns the normalized tag set found in the item's caption.
// Each tag is lowercased and carries exactly one leading '#'.
func (i *FeedItem) Hashtags() []string {
	var tags []string
	runes := []rune(i.Caption)
	for pos := 0; pos < len(runes); pos++ {
		if runes[pos] != '#' {
			continue
		}
		end := pos + 1
		for end < len(runes) && isTagRune(runes[end]) {
			end++
		}
		if end > pos+1 {
			tags = append(tags, NormalizeTag(string(runes[pos+1:end])))
		}
		pos = end - 1
	}
	return tags
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NormalizeTag lowercases a tag and reduces any leading '#' run to one.
func NormalizeTag(tag string) string {
	return "#" + strings.Trim(strings.ToLower(tag), "#")
}

// ContentRecord is the persisted representation of an ingested item.
// ExternalID is the upsert key; re-ingesting the same identifier
// updates this row in place.
type ContentRecord struct {
	ID         int64
	ExternalID string
	UserPK     int64
	Raw        map[string]any
	CreatedAt  time.Time
}

// Asset is one stored media object attached to a content record.
// Name is the logical key within the record, derived from the source
// media's own identifier; Bucket partitions primary content from
// video poster frames.
type Asset struct {
	ID         int64
	ContentID  int64
	Name       string
	Bucket     string
	URL        string
	Path       string
	Properties map[string]any
	CreatedAt  time.Time
}
