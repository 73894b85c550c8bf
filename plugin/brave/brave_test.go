package brave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Popoeson/e-library/model"
	"github.com/Popoeson/e-library/plugin"
)

func newTestPlugin(t *testing.T, body string, check func(r *http.Request)) *Plugin {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New("token-1", srv.URL, plugin.WithHTTPClient(srv.Client()))
}

func TestSearchWebResultsShape(t *testing.T) {
	body := `{"type": "search", "web": {"results": [
		{"title": "Graph <strong>Theory</strong>", "url": "https://example.edu/graphs.pdf", "description": "Intro <strong>notes</strong>"},
		{"url": "https://www.untitled.org/page"},
		{"title": "No link"}
	]}}`

	var token, count string
	p := newTestPlugin(t, body, func(r *http.Request) {
		token = r.Header.Get("X-Subscription-Token")
		count = r.URL.Query().Get("count")
	})

	results, err := p.Search(context.Background(), "graph theory", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, "5", count)

	assert.Equal(t, "Graph Theory", results[0].Title)
	assert.Equal(t, "Intro notes", results[0].Snippet)
	assert.Equal(t, model.TypeWeb, results[0].Type)
	assert.Equal(t, model.CategoryWeb, results[0].Category)
	assert.Equal(t, Name, results[0].Source)

	assert.Equal(t, "untitled.org", results[1].Title)
}

func TestSearchAlternateShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"results", `{"results": [{"name": "A", "link": "https://a.com", "snippet": "s"}]}`},
		{"items", `{"items": [{"headline": "A", "canonicalUrl": "https://a.com", "excerpt": "s"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlugin(t, tt.body, nil)
			results, err := p.Search(context.Background(), "q", 5)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "A", results[0].Title)
			assert.Equal(t, "https://a.com", results[0].Link)
			assert.Equal(t, "s", results[0].Snippet)
		})
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	body := `{"results": [
		{"title": "1", "url": "https://a.com/1"},
		{"title": "2", "url": "https://a.com/2"},
		{"title": "3", "url": "https://a.com/3"}
	]}`
	p := newTestPlugin(t, body, nil)

	results, err := p.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchUnknownShapeIsEmpty(t *testing.T) {
	p := newTestPlugin(t, `{"query": {"original": "q"}}`, nil)
	results, err := p.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
