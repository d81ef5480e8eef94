package finnhub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
	"resty.dev/v3"

	"stockmetrics/internal/fetcher"
)

const metricPath = "/stock/metric"

// Paths of the four extracted fields inside the metric bundle
const (
	pathPE         = "metric.peNormalizedAnnual"
	pathEPS        = "metric.epsTTM"
	pathDividend   = "metric.dividendYield"
	pathDebtEquity = "metric.debtToEquity"
)

// MetricFetcher fetches the "all" metric bundle for one symbol from Finnhub
type MetricFetcher struct {
	apiKey string
	symbol string
	client *resty.Client
}

// NewMetricFetcher creates a new metric fetcher. The client carries the
// base URL and is usually shared by every symbol.
func NewMetricFetcher(apiKey, symbol string, client *resty.Client) *MetricFetcher {
	return &MetricFetcher{
		apiKey: apiKey,
		symbol: symbol,
		client: client,
	}
}

// Fetch retrieves the metric bundle and extracts P/E, EPS, dividend yield
// and debt-to-equity. A non-2xx answer with a JSON body still yields an
// entry; only transport failures and unparseable bodies are errors.
func (f *MetricFetcher) Fetch(ctx context.Context) (fetcher.StockMetrics, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": f.symbol,
			"metric": "all",
			"token":  f.apiKey,
		}).
		Get(metricPath)

	if err != nil {
		return fetcher.StockMetrics{}, fmt.Errorf("failed to fetch metrics for %s: %w", f.symbol, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		slog.WarnContext(ctx, "finnhub returned non-success status",
			"symbol", f.symbol,
			"status", resp.StatusCode(),
			"error_type", fetcher.ClassifyHTTPError(resp.StatusCode()).Type)
	}

	return parseMetrics(f.symbol, resp.Bytes())
}

// Key returns the log key for this fetcher
func (f *MetricFetcher) Key() string {
	return fmt.Sprintf("fetcher:finnhub:%s", f.symbol)
}

// Symbol returns the ticker this fetcher queries
func (f *MetricFetcher) Symbol() string {
	return f.symbol
}

func parseMetrics(symbol string, body []byte) (fetcher.StockMetrics, error) {
	if !gjson.ValidBytes(body) {
		return fetcher.StockMetrics{}, fetcher.NewValidationError(fmt.Sprintf("response for %s is not valid JSON", symbol))
	}
	if gjson.ParseBytes(body).Type == gjson.Null {
		return fetcher.StockMetrics{}, fetcher.NewValidationError(fmt.Sprintf("response for %s is null", symbol))
	}

	fields := gjson.GetManyBytes(body, pathPE, pathEPS, pathDividend, pathDebtEquity)

	return fetcher.StockMetrics{
		Symbol:     symbol,
		PE:         number(fields[0]),
		EPS:        number(fields[1]),
		Dividend:   number(fields[2]),
		DebtEquity: number(fields[3]),
	}, nil
}

// number maps a gjson value to a Metric. Missing paths and non-numeric
// values are absent; an explicit null stays null.
func number(r gjson.Result) fetcher.Metric {
	switch {
	case r.Type == gjson.Number:
		return fetcher.Value(r.Float())
	case r.Type == gjson.Null && r.Exists():
		return fetcher.Null()
	default:
		return fetcher.Metric{}
	}
}
