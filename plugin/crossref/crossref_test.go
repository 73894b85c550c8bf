package crossref

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

const sampleWorks = `{
  "status": "ok",
  "message": {
    "items": [
      {
        "title": ["Graph <i>Theory</i> in Practice"],
        "URL": "http://dx.doi.org/10.1234/abc",
        "DOI": "10.1234/abc",
        "abstract": "<jats:p>An <jats:bold>overview</jats:bold> of graphs.</jats:p>",
        "author": [{"given": "Grace", "family": "Hopper"}, {"name": "The Consortium"}],
        "container-title": ["Journal of Graphs"],
        "issued": {"date-parts": [[2019, 5, 1]]}
      },
      {
        "title": [],
        "DOI": "10.9999/untitled",
        "issued": {"date-parts": [[null]]}
      },
      {
        "title": []
      }
    ]
  }
}`

func TestSearchParsesWorks(t *testing.T) {
	var gotUA, gotRows, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRows = r.URL.Query().Get("rows")
		gotQuery = r.URL.Query().Get("query")
		_, _ = w.Write([]byte(sampleWorks))
	}))
	defer srv.Close()

	p := New("librarian@example.org", plugin.WithHTTPClient(srv.Client()))
	p.BaseURL = srv.URL

	results, err := p.Search(context.Background(), "graph theory", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, gotUA, "mailto:librarian@example.org")
	assert.Equal(t, "3", gotRows)
	assert.Equal(t, "graph theory", gotQuery)

	first := results[0]
	assert.Equal(t, "Graph Theory in Practice", first.Title)
	assert.Equal(t, "http://dx.doi.org/10.1234/abc", first.Link)
	assert.Equal(t, "An overview of graphs.", first.Snippet)
	assert.Equal(t, []string{"Grace Hopper", "The Consortium"}, first.Authors)
	assert.Equal(t, "Journal of Graphs", first.Journal)
	assert.Equal(t, "2019", first.Published)
	assert.Equal(t, "10.1234/abc", first.DOI)
	assert.Equal(t, model.TypeResearch, first.Type)

	second := results[1]
	assert.Equal(t, "Untitled", second.Title)
	assert.Equal(t, "https://doi.org/10.9999/untitled", second.Link)
	assert.Empty(t, second.Published)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New("", plugin.WithHTTPClient(srv.Client()))
	p.BaseURL = srv.URL

	_, err := p.Search(context.Background(), "q", 3)
	assert.Error(t, err)
}

func TestSearchInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message": `))
	}))
	defer srv.Close()

	p := New("", plugin.WithHTTPClient(srv.Client()))
	p.BaseURL = srv.URL

	_, err := p.Search(context.Background(), "q", 3)
	assert.Error(t, err)
}
