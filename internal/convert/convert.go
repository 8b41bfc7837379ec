// Package convert implements the conversion façade: URL validation, the
// cache, orchestration, and the extraction pipeline that turns winning HTML
// into reader-mode Markdown (JSON-LD first, readability second, body
// fallback last).
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/cache"
	"github.com/readergate/readergate/internal/extract"
	"github.com/readergate/readergate/internal/markdown"
	"github.com/readergate/readergate/internal/metrics"
	"github.com/readergate/readergate/internal/reader"
)

// jsonldPreferredMin is the body length above which structured data wins
// over the readability pass.
const jsonldPreferredMin = 500

// fallbackTitle labels output whose article title could not be recovered.
const fallbackTitle = "Extracted Content"

// Content types of the two output envelopes.
const (
	ContentTypeMarkdown = "text/plain; charset=utf-8"
	ContentTypeJSON     = "application/json"
)

// envelope is the JSON wrapper produced when jsonFormat is requested.
type envelope struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Content  string `json:"content"`
	Strategy string `json:"strategy"`
	Elapsed  int64  `json:"elapsed"`
	Author   string `json:"author,omitempty"`
}

// Service is the conversion façade.
type Service struct {
	orch   reader.Orchestrator
	cache  *cache.Cache
	clock  reader.Clock
	logger *zap.Logger
}

// New builds a Service.
func New(orch reader.Orchestrator, store *cache.Cache, clock reader.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orch:   orch,
		cache:  store,
		clock:  clock,
		logger: logger,
	}
}

// Convert implements reader.Converter.
func (s *Service) Convert(ctx context.Context, rawURL string, opts reader.Options) (reader.ConversionResult, error) {
	start := s.clock.Now()

	if err := validateURL(rawURL); err != nil {
		metrics.ObserveConversion("invalid_url", 0)
		return reader.ConversionResult{}, err
	}

	if opts.UseCache && s.cache != nil {
		if entry, ok := s.cache.Get(rawURL); ok {
			metrics.ObserveCacheEvent("hit")
			s.logger.Debug("cache hit", zap.String("url", rawURL))
			return reader.ConversionResult{
				Content:     entry.Content,
				ContentType: entry.ContentType,
				Strategy:    entry.Strategy,
				Title:       entry.Title,
				ElapsedMS:   s.clock.Now().Sub(start).Milliseconds(),
				FromCache:   true,
			}, nil
		}
		metrics.ObserveCacheEvent("miss")
	}

	outcome, err := s.orch.Orchestrate(ctx, rawURL, reader.RaceOptions{
		Bypass:   opts.Bypass,
		Strategy: opts.Strategy,
	})
	if err != nil {
		metrics.ObserveConversion("error", s.clock.Now().Sub(start))
		return reader.ConversionResult{}, err
	}

	var content, title, author, date string
	switch outcome.Kind {
	case reader.PayloadMarkdown:
		content = outcome.Body
		title = outcome.Title
	default:
		content, title, author, date = s.renderHTML(outcome.Body, rawURL, opts)
		if title == "" {
			title = outcome.Title
		}
	}

	contentType := ContentTypeMarkdown
	if opts.JSONFormat {
		envTitle := title
		if envTitle == "" {
			envTitle = fallbackTitle
		}
		if date == "" {
			date = s.clock.Now().Format(time.RFC3339)
		}
		payload, err := json.Marshal(envelope{
			URL:      rawURL,
			Title:    envTitle,
			Date:     date,
			Content:  content,
			Strategy: outcome.Strategy,
			Elapsed:  outcome.ElapsedMS,
			Author:   author,
		})
		if err != nil {
			return reader.ConversionResult{}, fmt.Errorf("marshal envelope: %w", err)
		}
		content = string(payload)
		contentType = ContentTypeJSON
	}

	result := reader.ConversionResult{
		Content:     content,
		ContentType: contentType,
		Strategy:    outcome.Strategy,
		Title:       title,
		ElapsedMS:   s.clock.Now().Sub(start).Milliseconds(),
	}

	if opts.UseCache && s.cache != nil {
		s.cache.Put(rawURL, cache.Entry{
			Content:     result.Content,
			ContentType: result.ContentType,
			Strategy:    result.Strategy,
			Title:       result.Title,
		})
		metrics.ObserveCacheEvent("store")
	}
	metrics.ObserveConversion("ok", time.Duration(result.ElapsedMS)*time.Millisecond)
	return result, nil
}

// renderHTML turns winning HTML into Markdown: structured data when rich
// enough, otherwise readability plus the rule-based converter.
func (s *Service) renderHTML(body, rawURL string, opts reader.Options) (content, title, author, date string) {
	if meta := extract.JSONLD(body); meta != nil && len(meta.Body) > jsonldPreferredMin {
		s.logger.Debug("using json-ld article", zap.String("url", rawURL), zap.Int("bytes", len(meta.Body)))
		return composeArticle(meta.Title, meta.Author, meta.Body), meta.Title, meta.Author, meta.Published
	}

	article, extracted := extract.FromHTML(body, rawURL)
	if !extracted {
		s.logger.Debug("readability missed, using body fallback", zap.String("url", rawURL))
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		base = nil
	}
	mdBody, err := markdown.Convert(article.Content, markdown.Options{
		BaseURL:        base,
		PreserveImages: opts.PreserveImages,
	})
	if err != nil {
		// Not fatal: serve what the extractor recovered as plain text.
		s.logger.Warn("markdown conversion failed", zap.String("url", rawURL), zap.Error(err))
		mdBody = article.Excerpt
	}

	author = strings.TrimSpace(strings.TrimPrefix(article.Byline, "By "))
	return composeArticle(article.Title, author, mdBody), article.Title, author, ""
}

// composeArticle prefixes the rendered body with the title heading and an
// author line. A body that already opens with the title heading is left
// alone so the fallback path doesn't double it.
func composeArticle(title, author, body string) string {
	var b strings.Builder
	heading := "# " + strings.TrimSpace(title)
	if strings.TrimSpace(title) != "" && !strings.HasPrefix(body, heading) {
		b.WriteString(heading)
		b.WriteString("\n\n")
	}
	if strings.TrimSpace(author) != "" {
		b.WriteString("*By " + strings.TrimSpace(author) + "*\n\n")
	}
	b.WriteString(body)
	return b.String()
}

// validateURL accepts only absolute http(s) URLs with a host.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q", reader.ErrInvalidURL, rawURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", reader.ErrInvalidURL, rawURL)
	}
	return nil
}
