package strategy

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/charset"
	"github.com/readergate/readergate/internal/reader"
)

// twelveftRejections are the literal failure substrings 12ft.io serves.
// Deliberately narrower than the shared block table: the proxy's own error
// pages are the only signals observed from it.
var twelveftRejections = []string{
	"rate limit exceeded",
	"blocked",
}

// twelveftAdapter routes the URL through the 12ft.io paywall proxy.
type twelveftAdapter struct {
	fetcher  *htmlFetcher
	proxyURL string
	timeout  time.Duration
	logger   *zap.Logger
}

func (a *twelveftAdapter) ID() reader.StrategyID { return reader.StrategyTwelveft }

func (a *twelveftAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	headers := http.Header{}
	headers.Set("User-Agent", pick(desktopAgents))
	headers.Set("Referer", "https://12ft.io/")

	target := a.proxyURL + "?q=" + url.QueryEscape(rawURL)
	p, err := a.fetcher.get(ctx, target, headers)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}

	htmlText := charset.Decode(p.body, p.contentType)
	lower := strings.ToLower(htmlText)
	for _, rejection := range twelveftRejections {
		if strings.Contains(lower, rejection) {
			a.logger.Debug("12ft rejected request",
				zap.String("url", rawURL),
				zap.String("signal", rejection),
			)
			return reader.Failure(a.ID(), "proxy rejected: "+rejection)
		}
	}
	return reader.HTMLResult(a.ID(), htmlText, "")
}
