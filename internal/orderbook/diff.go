package orderbook

import "hlnodefeed/pkg/schema"

// Apply is the pure function that applies one diff to book. It
// returns Applied or Skipped and never mutates book on a Skipped
// outcome other than what CoinBook's own primitives already treat as
// a no-op. An unparsable price is Skipped, not an error: it is a
// normal (if unexpected) outcome of replaying an upstream feed that
// this process does not control.
func Apply(book *CoinBook, diff schema.BookDiff) Outcome {
	price, err := ParsePrice(diff.Px)
	if err != nil {
		return Skipped
	}

	switch k := diff.Kind.(type) {
	case schema.NewOrder:
		size, err := parseDecimal(k.Size)
		if err != nil {
			return Skipped
		}
		return book.Insert(diff.Oid, diff.Side, price, diff.User, size)

	case schema.UpdateOrder:
		orig, err := parseDecimal(k.OrigSize)
		if err != nil {
			return Skipped
		}
		next, err := parseDecimal(k.NewSize)
		if err != nil {
			return Skipped
		}
		return book.Update(diff.Oid, orig, next)

	case schema.RemoveOrder:
		return book.Remove(diff.Oid)

	default:
		return Skipped
	}
}
