package openlibrary

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

const sampleDocs = `{
  "numFound": 3,
  "docs": [
    {
      "key": "/works/OL1W",
      "title": "The Art of Computer Programming",
      "author_name": ["Donald Knuth"],
      "first_publish_year": 1968,
      "isbn": ["0201896834", "9780201896831"],
      "first_sentence": ["This series of books is affectionately dedicated."]
    },
    {
      "key": "/works/OL2W",
      "title": "Graph Stories",
      "first_sentence": "A single sentence."
    },
    {
      "key": "/works/OL3W",
      "title": "Subjects Only",
      "subject": ["Graphs", "Mathematics"]
    }
  ]
}`

func TestSearchParsesDocs(t *testing.T) {
	var gotPath, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(sampleDocs))
	}))
	defer srv.Close()

	p := New(plugin.WithHTTPClient(srv.Client()))
	p.BaseURL = srv.URL

	results, err := p.Search(context.Background(), "programming", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "/search.json", gotPath)
	assert.Equal(t, "3", gotLimit)

	first := results[0]
	assert.Equal(t, srv.URL+"/works/OL1W", first.Link)
	assert.Equal(t, "This series of books is affectionately dedicated.", first.Snippet)
	assert.Equal(t, "9780201896831", first.ISBN)
	assert.Equal(t, "1968", first.Published)
	assert.Equal(t, []string{"Donald Knuth"}, first.Authors)
	assert.Equal(t, model.TypeBook, first.Type)

	assert.Equal(t, "A single sentence.", results[1].Snippet)
	assert.Empty(t, results[1].Published)
	assert.Equal(t, "Graphs, Mathematics", results[2].Snippet)
}
