package feed

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"insta_crawler/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	lastReq    *http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestRequestTagFeed(t *testing.T) {
	transport := &mockTransport{body: loadFixture(t, "testdata/tag_page.json"), statusCode: 200}
	client := NewHTTPClient(transport, "https://api.example.com/v1", "session-token")

	resp, err := client.Request(context.Background(), "hashtag", "getFeed", []string{"sunset", "rank-1", ""})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	if got := len(resp.RankedItems()); got != 1 {
		t.Errorf("ranked items = %d, want 1", got)
	}
	if got := len(resp.Items()); got != 2 {
		t.Errorf("chronological items = %d, want 2", got)
	}
	if got := resp.NextMaxID(); got != "QVFEaG5leHRwYWdl" {
		t.Errorf("NextMaxID() = %q", got)
	}

	ranked := resp.RankedItems()[0]
	want := &model.FeedItem{
		ID:        "3100000000000000001_11",
		PK:        3100000000000000001,
		UserPK:    11,
		MediaType: model.MediaTypeImage,
		TakenAt:   1700000300,
		Caption:   "golden hour #sunset #travel",
		ImageVersions: []model.MediaCandidate{
			{URL: "https://cdn.example.com/r1_full.jpg", Width: 1080, Height: 1350},
			{URL: "https://cdn.example.com/r1_small.jpg", Width: 320, Height: 400},
		},
	}
	ignoreRaw := cmpopts.IgnoreFields(model.FeedItem{}, "Raw")
	if diff := cmp.Diff(want, ranked, ignoreRaw); diff != "" {
		t.Errorf("ranked item mismatch (-want +got):\n%s", diff)
	}
	if ranked.Raw["media_type"] == nil {
		t.Errorf("Raw payload not preserved: %v", ranked.Raw)
	}

	video := resp.Items()[0]
	if len(video.VideoVersions) != 1 || video.VideoVersions[0].URL != "https://cdn.example.com/v1.mp4" {
		t.Errorf("video versions not decoded: %+v", video.VideoVersions)
	}

	carousel := resp.Items()[1]
	if len(carousel.CarouselMedia) != 2 {
		t.Fatalf("carousel entries = %d, want 2", len(carousel.CarouselMedia))
	}
	if carousel.CarouselMedia[0].MediaType != model.MediaTypeImage ||
		carousel.CarouselMedia[1].MediaType != model.MediaTypeVideo {
		t.Errorf("carousel entry types = %d, %d",
			carousel.CarouselMedia[0].MediaType, carousel.CarouselMedia[1].MediaType)
	}

	req := transport.lastReq
	if req.URL.Path != "/v1/feed/tag/sunset/" {
		t.Errorf("request path = %q", req.URL.Path)
	}
	if got := req.URL.Query().Get("rank_token"); got != "rank-1" {
		t.Errorf("rank_token = %q", got)
	}
	if got := req.URL.Query().Get("max_id"); got != "" {
		t.Errorf("max_id = %q, want unset on first page", got)
	}
}

func TestRequestWithCursor(t *testing.T) {
	transport := &mockTransport{body: `{"items": []}`, statusCode: 200}
	client := NewHTTPClient(transport, "https://api.example.com/v1", "s")

	resp, err := client.Request(context.Background(), "hashtag", "getFeed", []string{"sunset", "rank-1", "cursor-2"})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}

	if got := transport.lastReq.URL.Query().Get("max_id"); got != "cursor-2" {
		t.Errorf("max_id = %q, want cursor-2", got)
	}
	if len(resp.Items()) != 0 || resp.NextMaxID() != "" {
		t.Errorf("empty page decoded as %+v", resp)
	}
}

func TestRequestMediaInfo(t *testing.T) {
	transport := &mockTransport{body: `{"items": [{"id": "9_1", "pk": 9, "media_type": 1}]}`, statusCode: 200}
	client := NewHTTPClient(transport, "https://api.example.com/v1", "s")

	resp, err := client.Request(context.Background(), "media", "getInfo", []string{"9"})
	if err != nil {
		t.Fatalf("Request() error: %v", err)
	}
	if transport.lastReq.URL.Path != "/v1/media/9/info/" {
		t.Errorf("request path = %q", transport.lastReq.URL.Path)
	}
	if len(resp.Items()) != 1 || resp.Items()[0].PK != 9 {
		t.Errorf("items = %+v", resp.Items())
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		resource  string
		action    string
		params    []string
	}{
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			resource:  "hashtag", action: "getFeed", params: []string{"t", "r", ""},
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "denied", statusCode: 403},
			resource:  "hashtag", action: "getFeed", params: []string{"t", "r", ""},
		},
		{
			name:      "invalid json",
			transport: &mockTransport{body: "not json", statusCode: 200},
			resource:  "hashtag", action: "getFeed", params: []string{"t", "r", ""},
		},
		{
			name:      "unknown endpoint",
			transport: &mockTransport{body: "{}", statusCode: 200},
			resource:  "user", action: "getFeed", params: []string{"t"},
		},
		{
			name:      "missing params",
			transport: &mockTransport{body: "{}", statusCode: 200},
			resource:  "hashtag", action: "getFeed", params: []string{"t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(tt.transport, "https://api.example.com/v1", "s")
			if _, err := client.Request(context.Background(), tt.resource, tt.action, tt.params); err == nil {
				t.Errorf("Request() error = nil, want error")
			}
		})
	}
}
