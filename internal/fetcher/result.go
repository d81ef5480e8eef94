package fetcher

// Result represents the outcome of a fetch operation.
// It's designed to be sent from worker goroutines to the coordinator,
// which keeps successful metrics and logs the failures.
type Result struct {
	// Key is the hierarchical key of the fetcher that produced this result
	Key string

	// Symbol is the ticker the fetch was made for
	Symbol string

	// Metrics is the fetched metric record
	Metrics StockMetrics

	// Error contains any error that occurred during the fetch operation.
	// If Error is not nil, Metrics should be considered invalid.
	Error error
}
