// internal/domain/quote.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one exchange-rate response: rates from Source to each target,
// keyed by the concatenated pair code ("USDEUR").
type Quote struct {
	Timestamp int64              `json:"timestamp"`
	Source    string             `json:"source"`
	Quotes    map[string]float64 `json:"quotes"`
}

// Rate returns the Source→target rate.
func (q *Quote) Rate(target string) (float64, bool) {
	rate, ok := q.Quotes[q.Source+target]
	return rate, ok
}

// RatesByTarget re-keys the quotes by target code ("USDEUR" -> "EUR").
func (q *Quote) RatesByTarget() map[string]float64 {
	out := make(map[string]float64, len(q.Quotes))
	for pair, rate := range q.Quotes {
		if len(pair) > 3 {
			out[pair[3:]] = rate
		}
	}
	return out
}

// Time returns the quote timestamp in UTC.
func (q *Quote) Time() time.Time {
	return time.Unix(q.Timestamp, 0).UTC()
}

// ConvertAmount applies rate to amount and rounds half away from zero to the
// stored scale.
func ConvertAmount(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Round(AmountScale)
}
