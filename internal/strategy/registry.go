package strategy

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/readergate/readergate/internal/reader"
	"github.com/readergate/readergate/internal/validate"
)

// BuildAdapters constructs every strategy adapter. The HTML-producing
// adapters share one fetch engine; the structured-body adapters (wayback
// availability, jina, exa) share one plain HTTP client.
func BuildAdapters(cfg Config, table *validate.Table, logger *zap.Logger) map[reader.StrategyID]reader.Adapter {
	cfg = cfg.withDefaults()
	if table == nil {
		table = validate.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fetcher := newHTMLFetcher(cfg, logger)
	client := &http.Client{Timeout: cfg.Timeout}

	return map[reader.StrategyID]reader.Adapter{
		reader.StrategyDirect: &directAdapter{
			fetcher: fetcher,
			table:   table,
			timeout: cfg.Timeout,
			logger:  logger,
		},
		reader.StrategyGooglebot: &botAdapter{
			profile: googlebotProfile,
			fetcher: fetcher,
			timeout: cfg.Timeout,
			logger:  logger,
		},
		reader.StrategyBingbot: &botAdapter{
			profile: bingbotProfile,
			fetcher: fetcher,
			timeout: cfg.Timeout,
			logger:  logger,
		},
		reader.StrategyFacebookbot: &botAdapter{
			profile: facebookbotProfile,
			fetcher: fetcher,
			timeout: cfg.Timeout,
			logger:  logger,
		},
		reader.StrategyTwelveft: &twelveftAdapter{
			fetcher:  fetcher,
			proxyURL: cfg.TwelveftProxyURL,
			timeout:  cfg.Timeout,
			logger:   logger,
		},
		reader.StrategyArchive: &archiveAdapter{
			fetcher:         fetcher,
			client:          client,
			availabilityURL: cfg.WaybackAvailabilityURL,
			snapshotBase:    cfg.WaybackSnapshotBase,
			timeout:         cfg.Timeout,
			logger:          logger,
		},
		reader.StrategyJina: &jinaAdapter{
			client:  client,
			base:    cfg.JinaReaderBase,
			timeout: cfg.Timeout,
			logger:  logger,
		},
		reader.StrategyExa: &exaAdapter{
			client:  client,
			url:     cfg.ExaMCPURL,
			timeout: cfg.Timeout,
			logger:  logger,
		},
		reader.StrategyGoogleNews: &googleNewsAdapter{
			logger: logger,
		},
	}
}

// orchestratorBinder is implemented by adapters that re-enter the
// orchestrator and therefore need it injected after construction.
type orchestratorBinder interface {
	BindOrchestrator(reader.Orchestrator)
}

// BindOrchestrator injects the orchestrator into the adapters that recurse
// into it.
func BindOrchestrator(adapters map[reader.StrategyID]reader.Adapter, orch reader.Orchestrator) {
	for _, a := range adapters {
		if binder, ok := a.(orchestratorBinder); ok {
			binder.BindOrchestrator(orch)
		}
	}
}
