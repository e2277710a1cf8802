// Package orderbook maintains an in-memory, per-instrument mirror of
// the upstream node's limit order books.
package orderbook

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a decimal price with total ordering, suitable as a sorted
// map key. It wraps shopspring/decimal rather than a float so that
// price comparisons and spread arithmetic stay exact.
type Price struct {
	d decimal.Decimal
}

// ParsePrice parses a decimal string price as found on the wire.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return Price{d: d}, nil
}

func (p Price) Decimal() decimal.Decimal { return p.d }
func (p Price) String() string           { return p.d.String() }
func (p Price) Cmp(o Price) int          { return p.d.Cmp(o.d) }
func (p Price) Sub(o Price) Price        { return Price{d: p.d.Sub(o.d)} }

// priceComparator orders two Price values for use as a treemap key,
// grounded on the pack's decimal-comparator pattern for sorted price
// levels.
func priceComparator(a, b interface{}) int {
	return a.(Price).Cmp(b.(Price))
}
