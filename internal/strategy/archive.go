package strategy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/charset"
	"github.com/readergate/readergate/internal/reader"
)

// waybackAvailability mirrors the archive.org availability API response.
type waybackAvailability struct {
	ArchivedSnapshots struct {
		Closest struct {
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// archiveAdapter serves the most recent Wayback Machine snapshot of the URL.
// The availability API is consulted first; when it has no usable snapshot the
// adapter falls back to the direct /web/<url> redirect endpoint.
type archiveAdapter struct {
	fetcher         *htmlFetcher
	client          *http.Client
	availabilityURL string
	snapshotBase    string
	timeout         time.Duration
	logger          *zap.Logger
}

func (a *archiveAdapter) ID() reader.StrategyID { return reader.StrategyArchive }

func (a *archiveAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	target := a.lookupSnapshot(ctx, rawURL)
	if target == "" {
		target = strings.TrimSuffix(a.snapshotBase, "/") + "/" + rawURL
	}

	headers := http.Header{}
	headers.Set("User-Agent", pick(desktopAgents))

	p, err := a.fetcher.get(ctx, target, headers)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}
	if !isHTMLContentType(p.contentType) {
		return reader.Failure(a.ID(), "unexpected content type "+p.contentType)
	}

	// The snapshot HTML is returned verbatim, Wayback toolbar included;
	// the extraction pipeline strips chrome well enough downstream.
	return reader.HTMLResult(a.ID(), charset.Decode(p.body, p.contentType), "")
}

// lookupSnapshot asks the availability API for the closest snapshot and
// returns its URL, or "" when none qualifies.
func (a *archiveAdapter) lookupSnapshot(ctx context.Context, rawURL string) string {
	endpoint := a.availabilityURL + "?url=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ""
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Debug("wayback availability lookup failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	var avail waybackAvailability
	if err := json.Unmarshal(body, &avail); err != nil {
		a.logger.Debug("wayback availability decode failed", zap.Error(err))
		return ""
	}
	closest := avail.ArchivedSnapshots.Closest
	if closest.URL == "" || closest.Status != "200" {
		return ""
	}
	a.logger.Debug("wayback snapshot located",
		zap.String("url", rawURL),
		zap.String("snapshot", closest.URL),
		zap.String("timestamp", closest.Timestamp),
	)
	return closest.URL
}
