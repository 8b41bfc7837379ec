package strategy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readergate/readergate/internal/reader"
)

const jinaArticle = `# Example Domain

This domain is for use in illustrative examples in documents. You may use this
domain in literature without prior coordination or asking for permission.
`

func TestJinaAdapterPassesRawURLAndAccept(t *testing.T) {
	t.Parallel()

	var gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, jinaArticle)
	}))
	defer srv.Close()

	adapters := testAdapters(t, Config{JinaReaderBase: srv.URL})
	res := adapters[reader.StrategyJina].Fetch(context.Background(), "https://example.com/path?x=1")

	require.True(t, res.Success(), "unexpected failure: %s", res.Err)
	assert.Equal(t, reader.PayloadMarkdown, res.Kind)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Contains(t, gotPath, "https://example.com/path")
	assert.Equal(t, "Example Domain", res.Title)
	assert.True(t, strings.HasPrefix(res.Body, "# Example Domain"))
}

func TestJinaAdapterStripsPreamble(t *testing.T) {
	t.Parallel()

	body := "Title: Example Domain\n\nURL Source: https://example.com/\n\nMarkdown Content:\n\n" + jinaArticle
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	adapters := testAdapters(t, Config{JinaReaderBase: srv.URL})
	res := adapters[reader.StrategyJina].Fetch(context.Background(), "https://example.com/")

	require.True(t, res.Success(), "unexpected failure: %s", res.Err)
	assert.True(t, strings.HasPrefix(res.Body, "# Example Domain"), "preamble not stripped: %q", res.Body[:40])
	assert.NotContains(t, res.Body, "Markdown Content:")
	assert.Equal(t, "Example Domain", res.Title)
}

func TestJinaAdapterRejectsShortBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "nope")
	}))
	defer srv.Close()

	adapters := testAdapters(t, Config{JinaReaderBase: srv.URL})
	res := adapters[reader.StrategyJina].Fetch(context.Background(), "https://example.com/")

	require.False(t, res.Success())
	assert.Contains(t, res.Err, "too short")
}

func TestStripJinaPreambleWithoutPreamble(t *testing.T) {
	t.Parallel()

	md, title := stripJinaPreamble(jinaArticle)
	assert.Equal(t, jinaArticle, md)
	assert.Empty(t, title)
}
