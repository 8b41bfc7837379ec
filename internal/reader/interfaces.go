package reader

import (
	"context"
	"time"
)

// Adapter executes one bypass technique against a URL. Implementations must
// catch all transport errors and map them into the Result record, and must be
// safe to cancel mid-flight through the context.
type Adapter interface {
	ID() StrategyID
	Fetch(ctx context.Context, rawURL string) Result
}

// Orchestrator races adapters and selects the winning result for a URL.
type Orchestrator interface {
	Orchestrate(ctx context.Context, rawURL string, opts RaceOptions) (Outcome, error)
}

// Converter is the single entry point front ends call.
type Converter interface {
	Convert(ctx context.Context, rawURL string, opts Options) (ConversionResult, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock is the real Clock used outside tests.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
