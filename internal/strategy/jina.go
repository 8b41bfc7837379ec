package strategy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/reader"
)

// jinaMinBody guards against the reader service returning its own error
// blurbs as a 200.
const jinaMinBody = 50

var (
	// jinaPreambleRe matches the optional "Title: … Markdown Content:"
	// header block the reader prepends before the article body.
	jinaPreambleRe = regexp.MustCompile(`(?s)^Title:[ \t]*(.*?)\n.*?Markdown Content:\n+`)
	// markdownHeadingRe captures the first ATX h1 in the returned Markdown.
	markdownHeadingRe = regexp.MustCompile(`(?m)^# (.+)$`)
)

// jinaAdapter fetches reader-mode Markdown from the Jina Reader service.
type jinaAdapter struct {
	client  *http.Client
	base    string
	timeout time.Duration
	logger  *zap.Logger
}

func (a *jinaAdapter) ID() reader.StrategyID { return reader.StrategyJina }

func (a *jinaAdapter) Fetch(ctx context.Context, rawURL string) reader.Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// The target URL is appended raw, not escaped; the reader expects the
	// original scheme and path verbatim.
	endpoint := strings.TrimSuffix(a.base, "/") + "/" + rawURL
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", pick(desktopAgents))

	resp, err := a.client.Do(req)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return reader.Failure(a.ID(), fmt.Sprintf("http status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reader.Failure(a.ID(), errText(err))
	}
	if len(body) < jinaMinBody {
		return reader.Failure(a.ID(), "reader response too short")
	}

	markdown, preambleTitle := stripJinaPreamble(string(body))
	title := preambleTitle
	if m := markdownHeadingRe.FindStringSubmatch(markdown); m != nil {
		title = strings.TrimSpace(m[1])
	}
	a.logger.Debug("jina reader succeeded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(markdown)),
	)
	return reader.MarkdownResult(a.ID(), markdown, title)
}

// stripJinaPreamble removes the reader's metadata header when present at the
// start of the body and returns any title it declared.
func stripJinaPreamble(body string) (markdown, title string) {
	m := jinaPreambleRe.FindStringSubmatch(body)
	if m == nil {
		return body, ""
	}
	return body[len(m[0]):], strings.TrimSpace(m[1])
}
