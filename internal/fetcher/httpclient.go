package fetcher

import (
	"time"

	"resty.dev/v3"
)

const (
	defaultUserAgent = "stockmetrics/1.0"
	defaultTimeout   = 10 * time.Second
)

// NewHTTPClient creates the HTTP client shared by all fetchers of one provider.
// Calls are made once: a failed symbol is dropped from the response, not retried.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", defaultUserAgent)
}
