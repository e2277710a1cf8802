package protocol

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)
var two = decimal.NewFromInt(2)

// ComputeSpread builds a SpreadResponse from a book's best bid, best
// ask, and their difference. mid is (bid+ask)/2; spreadPct is zero when
// mid is zero, otherwise spreadAbs/mid*100, formatted to four decimal
// places.
func ComputeSpread(coin string, bid, ask, spreadAbs decimal.Decimal) SpreadResponse {
	mid := bid.Add(ask).Div(two)
	var pct decimal.Decimal
	if !mid.IsZero() {
		pct = spreadAbs.Div(mid).Mul(hundred)
	}
	return SpreadResponse{
		Coin:      coin,
		Bid:       bid.String(),
		Ask:       ask.String(),
		SpreadAbs: spreadAbs.String(),
		SpreadPct: pct.StringFixed(4),
	}
}
