package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searxngBody = `{
  "query": "capital of france",
  "results": [
    {"title": "Qwant only", "url": "https://q.example", "content": "skip me", "engines": ["qwant"]},
    {"title": "Paris - <b>Wikipedia</b>", "url": "https://en.wikipedia.org/wiki/Paris", "content": "Paris is the capital &amp; largest city of France.", "engines": ["google", "qwant"]},
    {"title": "Paris travel", "url": "https://travel.example", "content": "Visit Paris.", "engines": ["bing"]},
    {"title": "Third", "url": "https://third.example", "content": "c3", "engines": ["duckduckgo"]},
    {"title": "Fourth", "url": "https://fourth.example", "content": "c4", "engines": ["google"]}
  ]
}`

func TestSearXNG_Search(t *testing.T) {
	var gotQuery, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, searxngBody)
	}))
	defer srv.Close()

	p := NewSearXNG(srv.URL+"/", nil, WithExcludedEngines("qwant"))
	results, err := p.Search(context.Background(), "capital of france", Options{Count: 3})
	require.NoError(t, err)

	assert.Equal(t, "capital of france", gotQuery)
	assert.Equal(t, "json", gotFormat)

	require.Len(t, results, 3)
	assert.Equal(t, "Paris - Wikipedia", results[0].Title)
	assert.Equal(t, "Paris is the capital & largest city of France.", results[0].Content)
	assert.Equal(t, []string{"google", "qwant"}, results[0].Engines, "multi-engine results survive the filter")
	assert.Equal(t, "https://travel.example", results[1].URL)
	assert.Equal(t, "Third", results[2].Title)
}

func TestSearXNG_NoExclusions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, searxngBody)
	}))
	defer srv.Close()

	results, err := NewSearXNG(srv.URL, nil).Search(context.Background(), "q", Options{})
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.Equal(t, "Qwant only", results[0].Title)
}

func TestSearXNG_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewSearXNG(srv.URL, nil).Search(context.Background(), "q", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSearXNG_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	}))
	defer srv.Close()

	_, err := NewSearXNG(srv.URL, nil).Search(context.Background(), "q", Options{})
	assert.ErrorContains(t, err, "decode response")
}

func TestBrave_Search(t *testing.T) {
	var gotToken, gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotCount = r.URL.Query().Get("count")
		_, _ = io.WriteString(w, `{"web":{"results":[
			{"title":"Paris","url":"https://paris.example","description":"The <strong>capital</strong> of France"}
		]}}`)
	}))
	defer srv.Close()

	p := NewBrave("brave-key", nil, WithBraveEndpoint(srv.URL))
	results, err := p.Search(context.Background(), "capital", Options{Count: 3})
	require.NoError(t, err)

	assert.Equal(t, "brave-key", gotToken)
	assert.Equal(t, "3", gotCount)
	require.Len(t, results, 1)
	assert.Equal(t, "The capital of France", results[0].Content)
	assert.Equal(t, []string{"brave"}, results[0].Engines)
}

func TestBrave_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewBrave("k", nil, WithBraveEndpoint(srv.URL)).Search(context.Background(), "q", Options{})
	assert.ErrorContains(t, err, "HTTP 401")
}
