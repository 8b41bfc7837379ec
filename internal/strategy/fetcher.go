package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// page is the decoded-header view of one HTTP response.
type page struct {
	body        []byte
	statusCode  int
	contentType string
	finalURL    string
}

type fetchResult struct {
	page page
	err  error
}

// htmlFetcher is the shared HTML fetch engine behind the HTTP-level
// adapters. Each request clones the base collector so per-adapter headers
// never leak across concurrent fetches.
type htmlFetcher struct {
	base   *colly.Collector
	logger *zap.Logger
}

func newHTMLFetcher(cfg Config, logger *zap.Logger) *htmlFetcher {
	base := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &htmlFetcher{
		base:   base,
		logger: logger,
	}
}

// get retrieves rawURL with the given headers, following redirects. The
// context flows into the underlying request so cancellation closes the
// socket mid-flight.
func (f *htmlFetcher) get(ctx context.Context, rawURL string, headers http.Header) (page, error) {
	collector := f.base.Clone()
	collector.Context = ctx

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range headers {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		p := page{
			body:       append([]byte{}, r.Body...),
			statusCode: r.StatusCode,
			finalURL:   r.Request.URL.String(),
		}
		if r.Headers != nil {
			p.contentType = r.Headers.Get("Content-Type")
		}
		send(fetchResult{page: p})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			send(fetchResult{err: fmt.Errorf("http status %d", r.StatusCode)})
			return
		}
		if err == nil {
			err = errors.New("unknown transport error")
		}
		send(fetchResult{err: err})
	})

	if err := collector.Visit(rawURL); err != nil {
		// colly reports an HTTP error status both to OnError and as Visit's
		// return value; prefer the handler's "http status N" text.
		select {
		case res := <-resultCh:
			if res.err != nil {
				return page{}, res.err
			}
		default:
		}
		return page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return page{}, err
		}
		return res.page, res.err
	default:
		return page{}, errors.New("fetch produced no result")
	}
}

// errText flattens transport errors into the short strings carried by
// strategy results.
func errText(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return err.Error()
}

func isHTMLContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}
