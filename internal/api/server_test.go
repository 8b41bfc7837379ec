package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/convert"
	"github.com/readergate/readergate/internal/reader"
)

// fakeConverter records the options it was called with.
type fakeConverter struct {
	lastURL  string
	lastOpts reader.Options
	result   reader.ConversionResult
	err      error
}

func (f *fakeConverter) Convert(_ context.Context, rawURL string, opts reader.Options) (reader.ConversionResult, error) {
	f.lastURL = rawURL
	f.lastOpts = opts
	return f.result, f.err
}

func newTestServer(conv reader.Converter) *Server {
	return NewServer(conv, time.Minute, zap.NewNop())
}

func TestConvertGetDefaults(t *testing.T) {
	t.Parallel()

	conv := &fakeConverter{result: reader.ConversionResult{
		Content:     "# Title\n\nbody",
		ContentType: convert.ContentTypeMarkdown,
		Strategy:    "direct",
		ElapsedMS:   12,
	}}
	srv := newTestServer(conv)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/convert?url=https://example.com", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com", conv.lastURL)
	assert.Equal(t, reader.DefaultOptions(), conv.lastOpts)
	assert.Equal(t, convert.ContentTypeMarkdown, rec.Header().Get("Content-Type"))
	assert.Equal(t, "direct", rec.Header().Get("X-Strategy"))
	assert.Equal(t, "false", rec.Header().Get("X-From-Cache"))
	assert.NotEmpty(t, rec.Header().Get("X-Convert-Id"))
	assert.Equal(t, "# Title\n\nbody", rec.Body.String())
}

func TestConvertGetParsesOptions(t *testing.T) {
	t.Parallel()

	conv := &fakeConverter{result: reader.ConversionResult{ContentType: convert.ContentTypeJSON}}
	srv := newTestServer(conv)

	rec := httptest.NewRecorder()
	target := "/v1/convert?url=https://example.com&bypass=1&preserve_images=false&json_format=true&use_cache=0&strategy=jina"
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, conv.lastOpts.Bypass)
	assert.False(t, conv.lastOpts.PreserveImages)
	assert.True(t, conv.lastOpts.JSONFormat)
	assert.False(t, conv.lastOpts.UseCache)
	assert.Equal(t, reader.StrategyJina, conv.lastOpts.Strategy)
}

func TestConvertPostBody(t *testing.T) {
	t.Parallel()

	conv := &fakeConverter{result: reader.ConversionResult{ContentType: convert.ContentTypeMarkdown}}
	srv := newTestServer(conv)

	body := `{"url":"https://example.com/a","bypass":true,"preserve_images":false}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/a", conv.lastURL)
	assert.True(t, conv.lastOpts.Bypass)
	assert.False(t, conv.lastOpts.PreserveImages)
	// Unset keys keep their defaults.
	assert.True(t, conv.lastOpts.UseCache)
	assert.False(t, conv.lastOpts.JSONFormat)
}

func TestConvertRequiresURL(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeConverter{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/convert", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "url is required")
}

func TestConvertRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeConverter{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/convert?url=https://x.test&strategy=warpdrive", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown strategy")
}

func TestConvertMapsErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "invalid url",
			err:        reader.ErrInvalidURL,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "all strategies failed",
			err: &reader.ExhaustedError{Attempts: []reader.Attempt{
				{Strategy: reader.StrategyDirect, Err: "timeout"},
			}},
			wantStatus: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeConverter{err: tt.err})
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/convert?url=https://x.test", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeConverter{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
