package orderbook

import "github.com/shopspring/decimal"

// orderEntry is one resting order at a price level.
type orderEntry struct {
	Oid  uint64
	User string
	Size decimal.Decimal
}

// level is the FIFO sequence of orders resting at one price. Time
// priority is insertion order into the slice.
type level struct {
	orders []orderEntry
}

func newLevel() *level {
	return &level{}
}

func (l *level) clone() *level {
	cp := make([]orderEntry, len(l.orders))
	copy(cp, l.orders)
	return &level{orders: cp}
}

func (l *level) indexOf(oid uint64) int {
	for i, e := range l.orders {
		if e.Oid == oid {
			return i
		}
	}
	return -1
}

func (l *level) append(e orderEntry) {
	l.orders = append(l.orders, e)
}

func (l *level) removeAt(i int) {
	l.orders = append(l.orders[:i], l.orders[i+1:]...)
}

func (l *level) empty() bool {
	return len(l.orders) == 0
}
