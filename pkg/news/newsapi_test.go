package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestNewsAPITopHeadlines(t *testing.T) {
	payload := map[string]interface{}{
		"status":       "ok",
		"totalResults": 1,
		"articles": []map[string]interface{}{
			{
				"source":      map[string]interface{}{"id": "reuters", "name": "Reuters"},
				"title":       "Central Bank Holds Rates Steady",
				"description": "Policymakers left the benchmark rate unchanged.",
				"url":         "https://example.com/rates",
				"publishedAt": "2026-08-28T09:15:00Z",
			},
		},
	}

	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"category": r.URL.Query().Get("category"),
			"pageSize": r.URL.Query().Get("pageSize"),
			"apiKey":   r.URL.Query().Get("apiKey"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	defer srv.Close()

	client := &NewsAPIClient{
		apiKey:     "test-key",
		httpClient: srv.Client(),
	}
	client.httpClient.Transport = &rewriteTransport{base: srv.URL, inner: http.DefaultTransport}

	articles, err := client.TopHeadlines(context.Background(), Query{Category: "business", PageSize: 5})

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(articles))
	assert.Equal(t, "business", gotQuery["category"])
	assert.Equal(t, "5", gotQuery["pageSize"])
	assert.Equal(t, "test-key", gotQuery["apiKey"])

	a := articles[0]
	assert.Equal(t, "Central Bank Holds Rates Steady", a.Title)
	assert.Equal(t, "Policymakers left the benchmark rate unchanged.", a.Description)
	assert.Equal(t, "https://example.com/rates", a.URL)
	assert.Equal(t, "Reuters", a.Source)
	assert.Equal(t, 2026, a.PublishedAt.Year())
	assert.Equal(t, time.August, a.PublishedAt.Month())
}

func TestNewsAPISourcesExcludeCategory(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"sources":  r.URL.Query().Get("sources"),
			"category": r.URL.Query().Get("category"),
			"country":  r.URL.Query().Get("country"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "articles": []interface{}{}})
	}))
	defer srv.Close()

	client := &NewsAPIClient{
		apiKey:     "test-key",
		httpClient: srv.Client(),
	}
	client.httpClient.Transport = &rewriteTransport{base: srv.URL, inner: http.DefaultTransport}

	_, err := client.TopHeadlines(context.Background(), Query{Category: "business", Country: "us", Sources: "bbc-news"})

	assert.Equal(t, nil, err)
	assert.Equal(t, "bbc-news", gotQuery["sources"])
	assert.Equal(t, "", gotQuery["category"])
	assert.Equal(t, "", gotQuery["country"])
}

func TestNewsAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "error",
			"code":    "apiKeyInvalid",
			"message": "Your API key is invalid.",
		})
	}))
	defer srv.Close()

	client := &NewsAPIClient{
		apiKey:     "bad-key",
		httpClient: srv.Client(),
	}
	client.httpClient.Transport = &rewriteTransport{base: srv.URL, inner: http.DefaultTransport}

	_, err := client.TopHeadlines(context.Background(), Query{Category: "general"})

	assert.NotEqual(t, nil, err)
}

// rewriteTransport redirects all requests to a fixed base URL (test server).
type rewriteTransport struct {
	base  string
	inner http.RoundTripper
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	parsed, _ := http.NewRequest("GET", rt.base, nil)
	req2.URL.Host = parsed.URL.Host
	req2.URL.Scheme = parsed.URL.Scheme
	return rt.inner.RoundTrip(req2)
}
