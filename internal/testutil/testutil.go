package testutil

import (
	"context"
	"fmt"

	"stockmetrics/internal/fetcher"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc  func(ctx context.Context) (fetcher.StockMetrics, error)
	SymbolName string
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context) (fetcher.StockMetrics, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return fetcher.StockMetrics{Symbol: m.Symbol()}, nil
}

// Key implements the Fetcher interface
func (m *MockFetcher) Key() string {
	return fmt.Sprintf("fetcher:mock:%s", m.Symbol())
}

// Symbol implements the Fetcher interface
func (m *MockFetcher) Symbol() string {
	if m.SymbolName != "" {
		return m.SymbolName
	}
	return "MOCK"
}

// NewMockFetcher creates a simple mock fetcher returning the given P/E for
// symbol, or err when it is non-nil
func NewMockFetcher(symbol string, pe float64, err error) *MockFetcher {
	return &MockFetcher{
		SymbolName: symbol,
		FetchFunc: func(ctx context.Context) (fetcher.StockMetrics, error) {
			if err != nil {
				return fetcher.StockMetrics{}, err
			}
			return fetcher.StockMetrics{Symbol: symbol, PE: fetcher.Value(pe)}, nil
		},
	}
}
