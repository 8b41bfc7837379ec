package strategy

import "time"

// Production endpoints for the third-party-backed strategies.
const (
	defaultWaybackAvailabilityURL = "https://archive.org/wayback/available"
	defaultWaybackSnapshotBase    = "https://web.archive.org/web"
	defaultTwelveftProxyURL       = "https://12ft.io/proxy"
	defaultJinaReaderBase         = "https://r.jina.ai"
	defaultExaMCPURL              = "https://mcp.exa.ai/mcp?tools=crawling_exa"
)

// defaultTimeout is the per-request budget applied by every adapter.
const defaultTimeout = 20 * time.Second

// Config holds the settings shared by the strategy adapters. It is decoupled
// from Viper so the adapters stay testable against local HTTP servers.
type Config struct {
	// Timeout bounds each outbound request. Expiry surfaces as the error
	// string "timeout" in the strategy result.
	Timeout time.Duration

	// Endpoint overrides, primarily for tests. Empty values select the
	// production endpoints above.
	WaybackAvailabilityURL string
	WaybackSnapshotBase    string
	TwelveftProxyURL       string
	JinaReaderBase         string
	ExaMCPURL              string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.WaybackAvailabilityURL == "" {
		c.WaybackAvailabilityURL = defaultWaybackAvailabilityURL
	}
	if c.WaybackSnapshotBase == "" {
		c.WaybackSnapshotBase = defaultWaybackSnapshotBase
	}
	if c.TwelveftProxyURL == "" {
		c.TwelveftProxyURL = defaultTwelveftProxyURL
	}
	if c.JinaReaderBase == "" {
		c.JinaReaderBase = defaultJinaReaderBase
	}
	if c.ExaMCPURL == "" {
		c.ExaMCPURL = defaultExaMCPURL
	}
	return c
}
