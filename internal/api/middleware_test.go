package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInstrumentMiddlewareAttachesConvertID(t *testing.T) {
	t.Parallel()

	var seen string
	h := instrumentMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ConvertID(r.Context())
		w.Header().Set("X-Strategy", "direct")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("body"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/convert", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Convert-Id"))
}

func TestConvertIDOutsideRequest(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ConvertID(t.Context()))
}
