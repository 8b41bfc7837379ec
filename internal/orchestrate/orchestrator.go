// Package orchestrate runs the tiered strategy races: a primary race of
// cheap impersonation fetches, then a fallback race of slower third-party
// services, with domain-specific routing for Google News wrappers. Within a
// race the first valid completion wins and the rest are cancelled.
package orchestrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/metrics"
	"github.com/readergate/readergate/internal/reader"
	"github.com/readergate/readergate/internal/strategy"
	"github.com/readergate/readergate/internal/validate"
)

// Acceptance floors. The primary HTML floor defeats SPA shells whose static
// HTML is a mere bootstrap; the fallback floor is lower because archival and
// proxy sources often serve leaner but legitimate bodies.
const (
	markdownFloor     = 100
	primaryHTMLFloor  = 10_000
	fallbackHTMLFloor = 1_000
	newsArchiveFloor  = 10_000
)

// Orchestrator selects a winning strategy result for a URL.
type Orchestrator struct {
	adapters map[reader.StrategyID]reader.Adapter
	table    *validate.Table
	clock    reader.Clock
	logger   *zap.Logger
}

// New builds an Orchestrator over the given adapters and binds itself into
// the adapters that recurse (googlenews).
func New(
	adapters map[reader.StrategyID]reader.Adapter,
	table *validate.Table,
	clock reader.Clock,
	logger *zap.Logger,
) *Orchestrator {
	if table == nil {
		table = validate.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		adapters: adapters,
		table:    table,
		clock:    clock,
		logger:   logger,
	}
	strategy.BindOrchestrator(adapters, o)
	return o
}

// Orchestrate implements reader.Orchestrator.
func (o *Orchestrator) Orchestrate(ctx context.Context, rawURL string, opts reader.RaceOptions) (reader.Outcome, error) {
	start := o.clock.Now()
	finish := func(res reader.Result, attempts []reader.Attempt) reader.Outcome {
		elapsed := o.clock.Now().Sub(start).Milliseconds()
		metrics.ObserveStrategyWin(string(res.Strategy))
		o.logger.Info("strategy selected",
			zap.String("url", rawURL),
			zap.String("strategy", string(res.Strategy)),
			zap.Int64("elapsed_ms", elapsed),
			zap.Int("attempts", len(attempts)),
		)
		return reader.Outcome{
			Strategy:  string(res.Strategy),
			Kind:      res.Kind,
			Body:      res.Body,
			Title:     res.Title,
			ElapsedMS: elapsed,
			Attempts:  attempts,
		}
	}

	// Explicit-strategy branch: the caller picked one adapter, no tiering.
	if opts.Strategy != "" && opts.Strategy != reader.StrategyAuto {
		res, attempts := o.runOne(ctx, opts.Strategy, rawURL, nil)
		if !res.Success() {
			return reader.Outcome{}, &reader.ExhaustedError{Attempts: attempts}
		}
		return finish(res, attempts), nil
	}

	var attempts []reader.Attempt
	skipPrimary := false

	// Google-News branch: the wrapper page is a client-side redirect no bot
	// race can follow, so try the archive, then the decoder, then fall
	// through straight to the fallback tier.
	if strategy.IsGoogleNewsURL(rawURL) {
		res, updated := o.runOne(ctx, reader.StrategyArchive, rawURL, attempts)
		attempts = updated
		if res.Success() && res.Kind == reader.PayloadHTML && len(res.Body) > newsArchiveFloor {
			return finish(res, attempts), nil
		}
		if res.Success() {
			// Archive answered but too thin to be the article; note it.
			attempts[len(attempts)-1].Err = "archive snapshot too small"
		}

		res, attempts = o.runOne(ctx, reader.StrategyGoogleNews, rawURL, attempts)
		if res.Success() {
			return finish(res, attempts), nil
		}

		opts.Bypass = true
		skipPrimary = true
	}

	// No-bypass branch: a plain direct fetch, no racing, no size floor.
	if !opts.Bypass {
		res, updated := o.runOne(ctx, reader.StrategyDirect, rawURL, attempts)
		attempts = updated
		if !res.Success() {
			return reader.Outcome{}, &reader.ExhaustedError{Attempts: attempts}
		}
		return finish(res, attempts), nil
	}

	if !skipPrimary {
		if res, ok := o.race(ctx, rawURL, reader.PrimaryStrategies, o.acceptPrimary, &attempts); ok {
			return finish(res, attempts), nil
		}
	}

	if res, ok := o.race(ctx, rawURL, reader.FallbackStrategies, o.acceptFallback, &attempts); ok {
		return finish(res, attempts), nil
	}

	o.logger.Warn("all strategies exhausted",
		zap.String("url", rawURL),
		zap.Int("attempts", len(attempts)),
	)
	return reader.Outcome{}, &reader.ExhaustedError{Attempts: attempts}
}

// runOne executes a single adapter and appends its attempt record.
func (o *Orchestrator) runOne(
	ctx context.Context,
	id reader.StrategyID,
	rawURL string,
	attempts []reader.Attempt,
) (reader.Result, []reader.Attempt) {
	adapter, ok := o.adapters[id]
	if !ok {
		res := reader.Failure(id, fmt.Sprintf("unknown strategy %q", id))
		return res, append(attempts, reader.Attempt{Strategy: id, Err: res.Err})
	}
	res := adapter.Fetch(ctx, rawURL)
	attempt := reader.Attempt{Strategy: id}
	if !res.Success() {
		attempt.Err = res.Err
		metrics.ObserveStrategyAttempt(string(id), "error")
	} else {
		metrics.ObserveStrategyAttempt(string(id), "ok")
	}
	return res, append(attempts, attempt)
}

// race runs the given adapters concurrently and returns the first result the
// accept predicate clears. Losing adapters are cancelled as soon as a winner
// lands; attempts are recorded in completion order.
func (o *Orchestrator) race(
	ctx context.Context,
	rawURL string,
	ids []reader.StrategyID,
	accept func(reader.Result) string,
	attempts *[]reader.Attempt,
) (reader.Result, bool) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan reader.Result, len(ids))
	launched := 0
	for _, id := range ids {
		adapter, ok := o.adapters[id]
		if !ok {
			*attempts = append(*attempts, reader.Attempt{
				Strategy: id,
				Err:      fmt.Sprintf("unknown strategy %q", id),
			})
			continue
		}
		launched++
		go func(a reader.Adapter) {
			results <- a.Fetch(raceCtx, rawURL)
		}(adapter)
	}

	for i := 0; i < launched; i++ {
		select {
		case res := <-results:
			reason := accept(res)
			if reason == "" {
				*attempts = append(*attempts, reader.Attempt{Strategy: res.Strategy})
				metrics.ObserveStrategyAttempt(string(res.Strategy), "ok")
				return res, true
			}
			*attempts = append(*attempts, reader.Attempt{Strategy: res.Strategy, Err: reason})
			metrics.ObserveStrategyAttempt(string(res.Strategy), "error")
			o.logger.Debug("strategy rejected",
				zap.String("url", rawURL),
				zap.String("strategy", string(res.Strategy)),
				zap.String("reason", reason),
			)
		case <-ctx.Done():
			*attempts = append(*attempts, reader.Attempt{Strategy: "", Err: ctx.Err().Error()})
			return reader.Result{}, false
		}
	}
	return reader.Result{}, false
}

// acceptPrimary validates a primary-race result: Markdown above the floor,
// or HTML big enough to not be an app shell and clean of block, paywall, and
// search-error signals.
func (o *Orchestrator) acceptPrimary(res reader.Result) string {
	return o.acceptWithFloor(res, primaryHTMLFloor)
}

// acceptFallback validates a fallback-race result with the lower HTML floor.
func (o *Orchestrator) acceptFallback(res reader.Result) string {
	return o.acceptWithFloor(res, fallbackHTMLFloor)
}

func (o *Orchestrator) acceptWithFloor(res reader.Result, htmlFloor int) string {
	if !res.Success() {
		if res.Err == "" {
			return "empty result"
		}
		return res.Err
	}
	switch res.Kind {
	case reader.PayloadMarkdown:
		if len(res.Body) > markdownFloor {
			return ""
		}
		return "markdown too short"
	case reader.PayloadHTML:
		if len(res.Body) < htmlFloor {
			return "html too small, likely an app shell"
		}
		if o.table.IsBlocked(res.Body) {
			return "blocked page detected"
		}
		if o.table.IsPaywalled(res.Body) {
			return "paywall detected"
		}
		if o.table.IsGoogleErrorPage(res.Body) {
			return "google error page"
		}
		return ""
	default:
		return "no payload"
	}
}
