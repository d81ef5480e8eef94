package fetcher

import "strconv"

// StockMetrics is the per-symbol record returned to API clients.
// A metric the upstream payload did not carry is omitted from the JSON;
// one it reported as null is written as null. Neither becomes zero.
type StockMetrics struct {
	Symbol     string `json:"symbol"`
	PE         Metric `json:"pe,omitzero"`
	EPS        Metric `json:"eps,omitzero"`
	Dividend   Metric `json:"dividend,omitzero"`
	DebtEquity Metric `json:"debt_equity,omitzero"`
}

type metricState uint8

const (
	metricAbsent metricState = iota
	metricNull
	metricValue
)

// Metric is a single upstream ratio: absent, explicitly null, or a number.
// The zero value is absent.
type Metric struct {
	value float64
	state metricState
}

// Value returns a metric holding v.
func Value(v float64) Metric {
	return Metric{value: v, state: metricValue}
}

// Null returns a metric the upstream reported as null.
func Null() Metric {
	return Metric{state: metricNull}
}

// Float64 returns the number and whether one is present.
func (m Metric) Float64() (float64, bool) {
	return m.value, m.state == metricValue
}

// IsNull reports whether the upstream sent an explicit null.
func (m Metric) IsNull() bool {
	return m.state == metricNull
}

// IsZero reports whether the metric is absent; used by omitzero.
func (m Metric) IsZero() bool {
	return m.state == metricAbsent
}

// MarshalJSON implements json.Marshaler
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.state != metricValue {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, m.value, 'g', -1, 64), nil
}
