package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Popoeson/e-library/plugin"
)

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "general", r.URL.Query().Get("categories"))
		assert.Equal(t, "0", r.URL.Query().Get("safesearch"))
		_, _ = w.Write([]byte(`{"query": "q", "results": [
			{"title": "First", "url": "https://a.com/1", "content": "alpha", "engine": "duckduckgo"},
			{"title": "Second", "url": "https://a.com/2", "snippet": "beta"},
			{"title": "Third", "url": "https://a.com/3"},
			{"title": "Dropped"}
		]}`))
	}))
	defer srv.Close()

	p := New(srv.URL+"/", plugin.WithHTTPClient(srv.Client()))
	results, err := p.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "First", results[0].Title)
	assert.Equal(t, "alpha", results[0].Snippet)
	assert.Equal(t, Name, results[0].Source)
	assert.Equal(t, "beta", results[1].Snippet)
}
