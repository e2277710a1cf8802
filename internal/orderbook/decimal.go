package orderbook

import "github.com/shopspring/decimal"

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// ParseSize parses a decimal-string order size as found on the wire.
func ParseSize(s string) (decimal.Decimal, error) {
	return parseDecimal(s)
}
