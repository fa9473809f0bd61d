package fixtures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/cloo-solutions/podquery/internal/domain"
)

// SearchPayload is a literal search-service response
type SearchPayload struct {
	Status int
	Body   string
}

// Search payload scenario names
const (
	SearchThreeFeedsNoCount = "three_feeds_no_count"
	SearchWithCount         = "with_count"
	SearchHTMLDescription   = "html_description"
	SearchPartialFeeds      = "partial_feeds"
	SearchEmpty             = "empty"
	SearchUpstreamError     = "upstream_error"
	SearchNotJSON           = "not_json"
)

var searchPayloads = map[string]SearchPayload{
	SearchThreeFeedsNoCount: {Status: http.StatusOK, Body: `{
  "status": "true",
  "feeds": [
    {"id": 550168, "title": "The Joe Rogan Experience", "author": "Joe Rogan", "description": "The official podcast of comedian Joe Rogan.", "episodeCount": 2200, "artwork": "https://example.com/jre.jpg", "url": "https://feeds.example.com/jre", "language": "en"},
    {"id": 920666, "title": "JRE Clips", "author": "JRE Clips", "description": "Clips from the show.", "episodeCount": 312, "image": "https://example.com/clips.png", "url": "https://feeds.example.com/clips", "language": "en-us"},
    {"id": 1, "title": "Rogan Recaps", "author": "Fan Club", "description": "Weekly recaps.", "episodeCount": 48, "url": "https://feeds.example.com/recaps"}
  ],
  "description": "Found matching feeds"
}`},
	SearchWithCount: {Status: http.StatusOK, Body: `{
  "status": "true",
  "count": 120,
  "feeds": [
    {"id": 75075, "title": "Lex Fridman Podcast", "author": "Lex Fridman", "description": "Conversations about science, technology, history, philosophy and the nature of intelligence.", "episodeCount": 450, "artwork": "https://example.com/lex.jpg", "url": "https://lexfridman.com/feed/podcast/", "language": "en"}
  ],
  "description": "Found matching feeds"
}`},
	SearchHTMLDescription: {Status: http.StatusOK, Body: `{
  "status": "true",
  "count": 1,
  "feeds": [
    {"id": 42, "title": "Huberman Lab", "author": "Scicomm Media", "description": "<p>Dr. Andrew Huberman discusses <b>neuroscience</b> &amp; how our brain and its connections with the organs of our body control our perceptions, our behaviors, and our health, as well as existing and emerging tools for measuring and changing how our nervous system works.</p>", "episodeCount": 300, "url": "https://feeds.example.com/huberman"}
  ]
}`},
	SearchPartialFeeds: {Status: http.StatusOK, Body: `{
  "status": "true",
  "feeds": [
    {"id": 7},
    {"title": "", "author": "   ", "episodeCount": "many", "artwork": "", "image": "https://example.com/fallback.png"},
    "not an object",
    {"id": 9, "title": "Only Title"}
  ]
}`},
	SearchEmpty: {Status: http.StatusOK, Body: `{"status": "true", "count": 0, "feeds": [], "description": "No feeds match this search term"}`},
	SearchUpstreamError: {Status: http.StatusUnauthorized, Body: `{
  "status": "false",
  "description": "Authorization header value is invalid"
}`},
	SearchNotJSON: {Status: http.StatusOK, Body: `<html><body>Service Unavailable</body></html>`},
}

// LookupSearchPayload returns the payload registered under name
func LookupSearchPayload(name string) (SearchPayload, bool) {
	p, ok := searchPayloads[name]
	return p, ok
}

// SearchPayloadNames lists registered search payloads in sorted order
func SearchPayloadNames() []string {
	names := make([]string, 0, len(searchPayloads))
	for name := range searchPayloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchDoer replays one search payload in place of an HTTP client and
// records the requests it receives
type SearchDoer struct {
	payload SearchPayload

	mu       sync.Mutex
	requests []*http.Request
}

// NewSearchDoer creates a doer for the named payload
func NewSearchDoer(name string) (*SearchDoer, error) {
	p, ok := LookupSearchPayload(name)
	if !ok {
		return nil, fmt.Errorf("unknown search payload %q", name)
	}
	return &SearchDoer{payload: p}, nil
}

// Do returns the payload as an *http.Response
func (d *SearchDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	return &http.Response{
		StatusCode: d.payload.Status,
		Status:     fmt.Sprintf("%d %s", d.payload.Status, http.StatusText(d.payload.Status)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(d.payload.Body)),
		Request:    req,
	}, nil
}

// LastRequest returns the most recent request, or nil
func (d *SearchDoer) LastRequest() *http.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		return nil
	}
	return d.requests[len(d.requests)-1]
}

// Calls returns how many requests were made
func (d *SearchDoer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

// StaticSearcher returns a fixed outcome or error without any HTTP
type StaticSearcher struct {
	Outcome *domain.SearchOutcome
	Err     error

	mu    sync.Mutex
	calls []SearchCall
}

// SearchCall is one recorded StaticSearcher invocation
type SearchCall struct {
	Category   domain.Category
	Query      string
	MaxResults int
}

// Search records the call and returns the configured result
func (s *StaticSearcher) Search(_ context.Context, category domain.Category, query string, maxResults int) (*domain.SearchOutcome, error) {
	s.mu.Lock()
	s.calls = append(s.calls, SearchCall{Category: category, Query: query, MaxResults: maxResults})
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if s.Outcome == nil {
		return &domain.SearchOutcome{Category: category, Query: query, Records: []domain.SearchRecord{}}, nil
	}
	out := *s.Outcome
	out.Category = category
	out.Query = query
	return &out, nil
}

// Calls returns the recorded invocations
func (s *StaticSearcher) Calls() []SearchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SearchCall, len(s.calls))
	copy(out, s.calls)
	return out
}
