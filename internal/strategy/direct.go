package strategy

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/charset"
	"github.com/readergate/readergate/internal/reader"
	"github.com/readergate/readergate/internal/validate"
)

// directAdapter fetches the URL as a regular desktop browser would. It is
// the only adapter that rejects block and paywall pages itself; the bot
// adapters leave that to the race validation so a whitelisted response is
// never discarded early.
type directAdapter struct {
	fetcher *htmlFetcher
	table   *validate.Table
	timeout time.Duration
	logger  *zap.Logger
}

func (a *directAdapter) ID() reader.StrategyID { return reader.StrategyDirect }

func (a *directAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	headers := http.Header{}
	headers.Set("User-Agent", pick(desktopAgents))
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")

	p, err := a.fetcher.get(ctx, rawURL, headers)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}
	if !isHTMLContentType(p.contentType) {
		return reader.Failure(a.ID(), "unexpected content type "+p.contentType)
	}

	htmlText := charset.Decode(p.body, p.contentType)
	if a.table.IsBlocked(htmlText) {
		return reader.Failure(a.ID(), "blocked page detected")
	}
	if a.table.IsPaywalled(htmlText) {
		return reader.Failure(a.ID(), "paywall detected")
	}
	a.logger.Debug("direct fetch succeeded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(htmlText)),
	)
	return reader.HTMLResult(a.ID(), htmlText, "")
}
