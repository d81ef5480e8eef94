package coordinator

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"stockmetrics/internal/fetcher"
)

// Coordinator runs the configured fetchers and aggregates their metrics
type Coordinator struct {
	fetchers    []fetcher.Fetcher
	concurrency int
	logger      *slog.Logger
}

// New creates a new Coordinator with the given fetchers. concurrency bounds
// the number of in-flight upstream calls; 1 runs them strictly in order.
func New(fetchers []fetcher.Fetcher, concurrency int, logger *slog.Logger) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		fetchers:    fetchers,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Collect executes every fetcher and returns the successful metrics in
// fetcher order, regardless of completion order. Failures are logged and
// the corresponding symbol is left out. Collect never fails as a whole.
func (c *Coordinator) Collect(ctx context.Context) []fetcher.StockMetrics {
	results := make([]fetcher.Result, len(c.fetchers))

	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i, f := range c.fetchers {
		p.Go(func() {
			metrics, err := f.Fetch(ctx)
			results[i] = fetcher.Result{
				Key:     f.Key(),
				Symbol:  f.Symbol(),
				Metrics: metrics,
				Error:   err,
			}
		})
	}
	p.Wait()

	out := make([]fetcher.StockMetrics, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			c.logger.ErrorContext(ctx, "failed to fetch stock metrics",
				"symbol", r.Symbol,
				"key", r.Key,
				"error_type", fetcher.TypeOf(r.Error),
				"error", r.Error)
			continue
		}
		out = append(out, r.Metrics)
	}

	c.logger.DebugContext(ctx, "collected stock metrics",
		"requested", len(c.fetchers),
		"succeeded", len(out))

	return out
}
