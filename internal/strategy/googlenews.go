package strategy

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/reader"
)

// IsGoogleNewsURL reports whether rawURL points at a Google News article
// wrapper (the aggregator host or an RSS article redirect path).
func IsGoogleNewsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "news.google.com" || strings.Contains(u.Path, "/rss/articles/")
}

// googleNewsAdapter decodes the wrapper URL to the real publisher URL and
// re-enters the orchestrator on it with bypass enabled. The orchestrator is
// bound after construction to break the circular dependency.
type googleNewsAdapter struct {
	logger *zap.Logger

	mu   sync.RWMutex
	orch reader.Orchestrator
}

func (a *googleNewsAdapter) ID() reader.StrategyID { return reader.StrategyGoogleNews }

// BindOrchestrator wires the orchestrator this adapter recurses into.
func (a *googleNewsAdapter) BindOrchestrator(o reader.Orchestrator) {
	a.mu.Lock()
	a.orch = o
	a.mu.Unlock()
}

func (a *googleNewsAdapter) orchestrator() reader.Orchestrator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.orch
}

func (a *googleNewsAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	orch := a.orchestrator()
	if orch == nil {
		return reader.Failure(a.ID(), "orchestrator not bound")
	}

	target, err := DecodePublisherURL(rawURL)
	if err != nil {
		return reader.Failure(a.ID(), "decode article url: "+err.Error())
	}
	// Refuse to recurse into another wrapper; a second hop would loop.
	if IsGoogleNewsURL(target) {
		return reader.Failure(a.ID(), "decoded url is still a google news wrapper")
	}

	a.logger.Debug("google news article decoded",
		zap.String("wrapper", rawURL),
		zap.String("publisher", target),
	)
	outcome, err := orch.Orchestrate(ctx, target, reader.RaceOptions{Bypass: true})
	if err != nil {
		return reader.Failure(a.ID(), err.Error())
	}
	return reader.Result{
		Strategy: reader.StrategyID("googlenews-" + outcome.Strategy),
		Kind:     outcome.Kind,
		Body:     outcome.Body,
		Title:    outcome.Title,
	}
}

// Google News article ids are base64-wrapped protobuf envelopes carrying the
// publisher URL as a length-prefixed string.
var (
	gnEnvelopePrefix = []byte{0x08, 0x13, 0x22}
	gnEnvelopeSuffix = []byte{0xd2, 0x01}
)

// DecodePublisherURL extracts the real publisher URL from a Google News
// article wrapper URL. Newer opaque ids that require the internal batch API
// are reported as errors; the orchestrator treats that as one failed
// strategy and moves on.
func DecodePublisherURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	id := articleID(u.Path)
	if id == "" {
		return "", errors.New("no article id in path")
	}

	data, err := base64Decode(id)
	if err != nil {
		return "", fmt.Errorf("article id is not base64: %w", err)
	}
	data = bytes.TrimPrefix(data, gnEnvelopePrefix)
	if idx := bytes.Index(data, gnEnvelopeSuffix); idx >= 0 {
		data = data[:idx]
	}
	if len(data) < 2 {
		return "", errors.New("article id payload too short")
	}

	// One- or two-byte length header before the URL bytes.
	n := int(data[0])
	data = data[1:]
	if n >= 0x80 {
		n = (n & 0x7f) | int(data[0])<<7
		data = data[1:]
	}
	if n > len(data) {
		n = len(data)
	}
	decoded := string(data[:n])
	if !strings.HasPrefix(decoded, "http") {
		return "", errors.New("article id does not embed a publisher url")
	}
	return decoded, nil
}

// articleID pulls the opaque id out of /articles/<id> or /rss/articles/<id>.
func articleID(path string) string {
	for _, marker := range []string{"/rss/articles/", "/articles/", "/read/"} {
		if _, after, ok := strings.Cut(path, marker); ok {
			if id, _, _ := strings.Cut(after, "/"); id != "" {
				return id
			}
		}
	}
	return ""
}

func base64Decode(id string) ([]byte, error) {
	id = strings.TrimRight(id, "=")
	if data, err := base64.RawURLEncoding.DecodeString(id); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(id)
}
