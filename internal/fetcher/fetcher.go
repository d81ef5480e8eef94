package fetcher

import "context"

// Fetcher is the core interface that all metric fetchers must implement.
// Each fetcher knows how to retrieve the metric bundle for a single symbol
// and provides a hierarchical key used in logs.
type Fetcher interface {
	// Fetch retrieves the metrics for the fetcher's symbol.
	// Returns an error if the upstream call or response parsing fails.
	Fetch(ctx context.Context) (StockMetrics, error)

	// Key returns a hierarchical key for this fetcher.
	// Format: fetcher:{source}:{symbol}
	// Examples:
	//   - fetcher:finnhub:AAPL
	//   - fetcher:finnhub:TSLA
	Key() string

	// Symbol returns the ticker this fetcher queries.
	Symbol() string
}
