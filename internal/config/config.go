package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSymbols is the ticker universe served when no STOCK_SYMBOLS
// override is configured. Order is the response order.
var DefaultSymbols = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "INTC", "ADBE", "CRM",
	"AVGO", "AMD", "QCOM", "CSCO", "TXN", "ORCL", "NFLX", "SHOP", "UBER", "SNOW",
	"PANW", "NOW", "ZM", "DOCU", "DDOG", "PLTR", "OKTA", "TEAM", "CRWD", "ZS",
}

// Config holds all configuration for the stock metrics service.
type Config struct {
	// Finnhub credentials and endpoint (base URL is configurable for testing)
	FinnhubAPIKey  string `mapstructure:"finnhub_api_key"`
	FinnhubBaseURL string `mapstructure:"finnhub_base_url"`

	// Symbols to fetch, in response order
	StockSymbols []string `mapstructure:"stock_symbols"`

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr"`

	// Outbound calls
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Concurrency    int           `mapstructure:"concurrency"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from environment variables and optional config file.
// A .env file in the working directory is loaded into the environment first.
// Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - FINNHUB_API_KEY
//   - FINNHUB_BASE_URL (optional, defaults to production)
//   - STOCK_SYMBOLS (optional, comma separated)
//   - LISTEN_ADDR (optional, defaults to :8080)
//   - REQUEST_TIMEOUT (optional, defaults to 10s)
//   - FETCH_CONCURRENCY (optional, defaults to 1)
//   - LOG_LEVEL (optional, defaults to info)
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("stock_symbols", DefaultSymbols)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("concurrency", 1)
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stockmetrics")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("finnhub_api_key", "FINNHUB_API_KEY")
	v.BindEnv("finnhub_base_url", "FINNHUB_BASE_URL")
	v.BindEnv("stock_symbols", "STOCK_SYMBOLS")
	v.BindEnv("listen_addr", "LISTEN_ADDR")
	v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	v.BindEnv("concurrency", "FETCH_CONCURRENCY")
	v.BindEnv("log_level", "LOG_LEVEL")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.StockSymbols = normalizeSymbols(config.StockSymbols)

	if config.FinnhubAPIKey == "" {
		return nil, fmt.Errorf("missing required configuration: FINNHUB_API_KEY")
	}
	if len(config.StockSymbols) == 0 {
		return nil, fmt.Errorf("invalid configuration: STOCK_SYMBOLS is empty")
	}
	if config.Concurrency < 1 {
		return nil, fmt.Errorf("invalid configuration: FETCH_CONCURRENCY must be >= 1, got %d", config.Concurrency)
	}

	return config, nil
}

// normalizeSymbols trims whitespace and drops empty entries, so that
// "AAPL, MSFT," from the environment behaves like the YAML list form.
func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
