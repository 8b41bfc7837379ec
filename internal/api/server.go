// Package api exposes the HTTP interface for the conversion service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/metrics"
	"github.com/readergate/readergate/internal/reader"
)

// Server wires HTTP handlers to the conversion façade.
type Server struct {
	router    chi.Router
	converter reader.Converter
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(converter reader.Converter, requestTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		converter: converter,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(instrumentMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/convert", s.convertFromQuery)
		r.Post("/convert", s.convertFromBody)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// convertFromQuery accepts ?url=…&bypass=…&strategy=…&preserve_images=…&
// json_format=…&use_cache=… with the documented defaults.
func (s *Server) convertFromQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := reader.DefaultOptions()
	opts.Bypass = boolParam(q.Get("bypass"), opts.Bypass)
	opts.PreserveImages = boolParam(q.Get("preserve_images"), opts.PreserveImages)
	opts.JSONFormat = boolParam(q.Get("json_format"), opts.JSONFormat)
	opts.UseCache = boolParam(q.Get("use_cache"), opts.UseCache)
	opts.Strategy = reader.StrategyID(q.Get("strategy"))

	s.serveConversion(w, r, q.Get("url"), opts)
}

// convertRequest mirrors ConversionOptions for the JSON body, with pointer
// fields so absent keys keep their defaults.
type convertRequest struct {
	URL            string             `json:"url"`
	Bypass         *bool              `json:"bypass"`
	Strategy       *reader.StrategyID `json:"strategy"`
	PreserveImages *bool              `json:"preserve_images"`
	JSONFormat     *bool              `json:"json_format"`
	UseCache       *bool              `json:"use_cache"`
}

func (s *Server) convertFromBody(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	opts := reader.DefaultOptions()
	opts.Bypass = valueOrDefault(req.Bypass, opts.Bypass)
	opts.PreserveImages = valueOrDefault(req.PreserveImages, opts.PreserveImages)
	opts.JSONFormat = valueOrDefault(req.JSONFormat, opts.JSONFormat)
	opts.UseCache = valueOrDefault(req.UseCache, opts.UseCache)
	opts.Strategy = valueOrDefault(req.Strategy, opts.Strategy)

	s.serveConversion(w, r, req.URL, opts)
}

func (s *Server) serveConversion(w http.ResponseWriter, r *http.Request, rawURL string, opts reader.Options) {
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if opts.Strategy != "" && opts.Strategy != reader.StrategyAuto && !opts.Strategy.Known() {
		writeError(w, http.StatusBadRequest, "unknown strategy "+string(opts.Strategy))
		return
	}

	result, err := s.converter.Convert(r.Context(), rawURL, opts)
	if err != nil {
		var exhausted *reader.ExhaustedError
		switch {
		case errors.Is(err, reader.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &exhausted):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			s.logger.Error("conversion failed", zap.String("url", rawURL), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "conversion failed")
		}
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("X-Strategy", result.Strategy)
	w.Header().Set("X-From-Cache", strconv.FormatBool(result.FromCache))
	w.Header().Set("X-Elapsed-Ms", strconv.FormatInt(result.ElapsedMS, 10))
	if _, err := w.Write([]byte(result.Content)); err != nil {
		s.logger.Error("write response failed", zap.Error(err))
	}
}

func valueOrDefault[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}

// boolParam parses query-string booleans leniently: "1", "true", "yes", "on"
// are true; "0", "false", "no", "off" are false; anything else keeps def.
func boolParam(raw string, def bool) bool {
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
