// Package feed talks to the remote feed API and drives the crawl loop.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"insta_crawler/internal/model"
)

// Doer is the interface for performing HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the remote feed API, keyed by resource and action.
// Supported pairs: ("hashtag", "getFeed") with params [tag, rankToken,
// maxID] and ("media", "getInfo") with params [mediaID].
type Client interface {
	Request(ctx context.Context, resource, action string, params []string) (*Response, error)
}

// Response is one decoded feed page or media-info result.
type Response struct {
	ranked    []*model.FeedItem
	items     []*model.FeedItem
	nextMaxID string
}

// NewResponse builds a Response. Client implementations other than the
// HTTP one use it to hand back their pages.
func NewResponse(ranked, items []*model.FeedItem, nextMaxID string) *Response {
	return &Response{ranked: ranked, items: items, nextMaxID: nextMaxID}
}

// RankedItems returns the page's ranked item group.
func (r *Response) RankedItems() []*model.FeedItem { return r.ranked }

// Items returns the page's chronological item group.
func (r *Response) Items() []*model.FeedItem { return r.items }

// NextMaxID returns the pagination cursor, empty when the feed is
// exhausted.
func (r *Response) NextMaxID() string { return r.nextMaxID }

// HTTPClient implements Client against the JSON HTTP API.
type HTTPClient struct {
	doer      Doer
	baseURL   string
	sessionID string
}

// NewHTTPClient creates a client authenticated with the given session.
func NewHTTPClient(doer Doer, baseURL, sessionID string) *HTTPClient {
	return &HTTPClient{doer: doer, baseURL: baseURL, sessionID: sessionID}
}

// Request fetches and decodes one API response. A transport error or a
// non-2xx status is a failure; an empty page is not.
func (c *HTTPClient) Request(ctx context.Context, resource, action string, params []string) (*Response, error) {
	endpoint, err := c.endpoint(resource, action, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", "sessionid="+c.sessionID)

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return decodePage(body)
}

const (
	userAgent   = "Instagram 121.0.0.29.119 Android"
	maxBodySize = 10 * 1024 * 1024
)

func (c *HTTPClient) endpoint(resource, action string, params []string) (string, error) {
	switch resource + "/" + action {
	case "hashtag/getFeed":
		if len(params) < 2 {
			return "", fmt.Errorf("hashtag getFeed needs tag and rank token")
		}
		q := url.Values{"rank_token": {params[1]}}
		if len(params) > 2 && params[2] != "" {
			q.Set("max_id", params[2])
		}
		return c.baseURL + "/feed/tag/" + url.PathEscape(params[0]) + "/?" + q.Encode(), nil
	case "media/getInfo":
		if len(params) < 1 {
			return "", fmt.Errorf("media getInfo needs a media id")
		}
		return c.baseURL + "/media/" + url.PathEscape(params[0]) + "/info/", nil
	default:
		return "", fmt.Errorf("unknown endpoint %s/%s", resource, action)
	}
}

type wireCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type wireItem struct {
	ID        string `json:"id"`
	PK        int64  `json:"pk"`
	MediaType int    `json:"media_type"`
	TakenAt   int64  `json:"taken_at"`
	User      struct {
		PK int64 `json:"pk"`
	} `json:"user"`
	Caption struct {
		Text string `json:"text"`
	} `json:"caption"`
	ImageVersions2 struct {
		Candidates []wireCandidate `json:"candidates"`
	} `json:"image_versions2"`
	VideoVersions []wireCandidate   `json:"video_versions"`
	CarouselMedia []json.RawMessage `json:"carousel_media"`
}

type wirePage struct {
	RankedItems []json.RawMessage `json:"ranked_items"`
	Items       []json.RawMessage `json:"items"`
	NextMaxID   string            `json:"next_max_id"`
}

func decodePage(body []byte) (*Response, error) {
	var page wirePage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}

	ranked, err := decodeItems(page.RankedItems)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(page.Items)
	if err != nil {
		return nil, err
	}
	return &Response{ranked: ranked, items: items, nextMaxID: page.NextMaxID}, nil
}

func decodeItems(raws []json.RawMessage) ([]*model.FeedItem, error) {
	var items []*model.FeedItem
	for _, raw := range raws {
		item, err := decodeItem(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// decodeItem maps one wire item onto the domain type. The payload is
// decoded a second time into a generic map so the record keeps the
// upstream schema verbatim, unknown fields included.
func decodeItem(raw json.RawMessage) (*model.FeedItem, error) {
	var w wireItem
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return nil, fmt.Errorf("decode item payload: %w", err)
	}

	item := &model.FeedItem{
		ID:            w.ID,
		PK:            w.PK,
		UserPK:        w.User.PK,
		MediaType:     w.MediaType,
		TakenAt:       w.TakenAt,
		Caption:       w.Caption.Text,
		ImageVersions: candidates(w.ImageVersions2.Candidates),
		VideoVersions: candidates(w.VideoVersions),
		Raw:           full,
	}
	for _, nested := range w.CarouselMedia {
		entry, err := decodeItem(nested)
		if err != nil {
			return nil, err
		}
		item.CarouselMedia = append(item.CarouselMedia, *entry)
	}
	return item, nil
}

func candidates(wire []wireCandidate) []model.MediaCandidate {
	var out []model.MediaCandidate
	for _, c := range wire {
		out = append(out, model.MediaCandidate{URL: c.URL, Width: c.Width, Height: c.Height})
	}
	return out
}
