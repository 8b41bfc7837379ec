package strategy

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/charset"
	"github.com/readergate/readergate/internal/reader"
)

// botProfile describes one crawler identity: which user agents to rotate,
// which crawler-owned IPs to claim in X-Forwarded-For (empty disables
// spoofing), and the referer implied by the identity.
type botProfile struct {
	id       reader.StrategyID
	agents   []string
	crawlIPs []string
	referer  string
}

var (
	googlebotProfile = botProfile{
		id:       reader.StrategyGooglebot,
		agents:   googlebotAgents,
		crawlIPs: googleCrawlIPs,
	}
	bingbotProfile = botProfile{
		id:       reader.StrategyBingbot,
		agents:   bingbotAgents,
		crawlIPs: bingCrawlIPs,
		referer:  "https://www.bing.com/",
	}
	facebookbotProfile = botProfile{
		id:      reader.StrategyFacebookbot,
		agents:  facebookAgents,
		referer: "https://www.facebook.com/",
	}
)

// botAdapter impersonates a search-engine or social crawler to defeat
// paywalls that whitelist indexers. Block/paywall gating happens in the
// race, not here.
type botAdapter struct {
	profile botProfile
	fetcher *htmlFetcher
	timeout time.Duration
	logger  *zap.Logger
}

func (a *botAdapter) ID() reader.StrategyID { return a.profile.id }

func (a *botAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	headers := http.Header{}
	headers.Set("User-Agent", pick(a.profile.agents))
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if len(a.profile.crawlIPs) > 0 {
		headers.Set("X-Forwarded-For", pick(a.profile.crawlIPs))
	}
	if a.profile.referer != "" {
		headers.Set("Referer", a.profile.referer)
	}

	p, err := a.fetcher.get(ctx, rawURL, headers)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}
	if !isHTMLContentType(p.contentType) {
		return reader.Failure(a.ID(), "unexpected content type "+p.contentType)
	}

	htmlText := charset.Decode(p.body, p.contentType)
	a.logger.Debug("bot fetch succeeded",
		zap.String("strategy", string(a.profile.id)),
		zap.String("url", rawURL),
		zap.Int("bytes", len(htmlText)),
	)
	return reader.HTMLResult(a.ID(), htmlText, "")
}
