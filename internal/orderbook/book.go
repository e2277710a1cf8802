package orderbook

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/shopspring/decimal"

	"hlnodefeed/pkg/schema"
)

// Outcome is the result of applying a mutation to a CoinBook. Skipped
// is a legitimate, expected outcome under normal operation (replay
// overlap, stale guards) and is counted rather than treated as an
// error.
type Outcome int

const (
	Applied Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "skipped"
}

type oidLocation struct {
	Side  schema.Side
	Price Price
	User  string
}

// CoinBook is a per-instrument two-sided order book: bids and asks are
// ordered maps keyed by Price, each holding a FIFO sequence of resting
// orders, plus a side-independent oid index for O(log n) lookup.
//
// All mutating methods are meant to be called by a single writer; the
// CoinBook itself does no locking (see OrderBookService for the
// concurrency story).
type CoinBook struct {
	Coin string
	bids *treemap.Map // Price -> *level
	asks *treemap.Map // Price -> *level
	oids map[uint64]oidLocation
}

// NewCoinBook returns an empty book for the given instrument.
func NewCoinBook(coin string) *CoinBook {
	return &CoinBook{
		Coin: coin,
		bids: treemap.NewWith(priceComparator),
		asks: treemap.NewWith(priceComparator),
		oids: make(map[uint64]oidLocation),
	}
}

func (b *CoinBook) sideMap(side schema.Side) *treemap.Map {
	if side == schema.SideBid {
		return b.bids
	}
	return b.asks
}

// Clone returns a deep copy suitable for copy-on-write publication:
// every level and the oid index are copied, so mutating the clone
// never affects the original.
func (b *CoinBook) Clone() *CoinBook {
	cp := NewCoinBook(b.Coin)
	cloneSide := func(src, dst *treemap.Map) {
		it := src.Iterator()
		for it.Next() {
			price := it.Key().(Price)
			lvl := it.Value().(*level)
			dst.Put(price, lvl.clone())
		}
	}
	cloneSide(b.bids, cp.bids)
	cloneSide(b.asks, cp.asks)
	for oid, loc := range b.oids {
		cp.oids[oid] = loc
	}
	return cp
}

// Contains reports whether oid is present in the index.
func (b *CoinBook) Contains(oid uint64) bool {
	_, ok := b.oids[oid]
	return ok
}

// GetUser returns the wallet address that owns oid, if present.
func (b *CoinBook) GetUser(oid uint64) (string, bool) {
	loc, ok := b.oids[oid]
	if !ok {
		return "", false
	}
	return loc.User, true
}

// Insert introduces oid at price with size on side. Re-inserting an
// already-present oid is a no-op (idempotent replay) and returns
// Skipped.
func (b *CoinBook) Insert(oid uint64, side schema.Side, price Price, user string, size decimal.Decimal) Outcome {
	if _, exists := b.oids[oid]; exists {
		return Skipped
	}
	m := b.sideMap(side)
	raw, found := m.Get(price)
	var lvl *level
	if found {
		lvl = raw.(*level)
	} else {
		lvl = newLevel()
		m.Put(price, lvl)
	}
	lvl.append(orderEntry{Oid: oid, User: user, Size: size})
	b.oids[oid] = oidLocation{Side: side, Price: price, User: user}
	return Applied
}

// Update resizes oid, accepted only if the book's recorded size equals
// origSize (compare-and-swap guard against lost updates). Fails
// silently (Skipped) if oid is absent, the level disagrees with the
// stored price, or the guard mismatches.
func (b *CoinBook) Update(oid uint64, origSize, newSize decimal.Decimal) Outcome {
	loc, ok := b.oids[oid]
	if !ok {
		return Skipped
	}
	m := b.sideMap(loc.Side)
	raw, found := m.Get(loc.Price)
	if !found {
		return Skipped
	}
	lvl := raw.(*level)
	i := lvl.indexOf(oid)
	if i < 0 {
		return Skipped
	}
	if !lvl.orders[i].Size.Equal(origSize) {
		return Skipped
	}
	lvl.orders[i].Size = newSize
	return Applied
}

// Remove deletes oid. Removing an absent oid is a no-op (Skipped). A
// price level that becomes empty as a result is evicted from the
// sorted map.
func (b *CoinBook) Remove(oid uint64) Outcome {
	loc, ok := b.oids[oid]
	if !ok {
		return Skipped
	}
	m := b.sideMap(loc.Side)
	raw, found := m.Get(loc.Price)
	if !found {
		delete(b.oids, oid)
		return Skipped
	}
	lvl := raw.(*level)
	i := lvl.indexOf(oid)
	if i < 0 {
		delete(b.oids, oid)
		return Skipped
	}
	lvl.removeAt(i)
	if lvl.empty() {
		m.Remove(loc.Price)
	}
	delete(b.oids, oid)
	return Applied
}

// BestBid returns the highest bid price, if any bids rest.
func (b *CoinBook) BestBid() (Price, bool) {
	k, _ := b.bids.Max()
	if k == nil {
		return Price{}, false
	}
	return k.(Price), true
}

// BestAsk returns the lowest ask price, if any asks rest.
func (b *CoinBook) BestAsk() (Price, bool) {
	k, _ := b.asks.Min()
	if k == nil {
		return Price{}, false
	}
	return k.(Price), true
}

// Spread returns (bestBid, bestAsk, bestAsk-bestBid) when both sides
// have at least one level; otherwise ok is false.
func (b *CoinBook) Spread() (bid, ask, spread Price, ok bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return Price{}, Price{}, Price{}, false
	}
	return bid, ask, ask.Sub(bid), true
}

// BidLevels returns the number of distinct bid price levels.
func (b *CoinBook) BidLevels() int { return b.bids.Size() }

// AskLevels returns the number of distinct ask price levels.
func (b *CoinBook) AskLevels() int { return b.asks.Size() }

// TotalOrders returns the number of resting orders across both sides.
func (b *CoinBook) TotalOrders() int { return len(b.oids) }

// BidsDesc returns bid price levels from best to worst, with each
// level's orders in FIFO order.
func (b *CoinBook) BidsDesc() []PriceLevelView {
	return collectLevels(b.bids, true)
}

// AsksAsc returns ask price levels from best to worst, with each
// level's orders in FIFO order.
func (b *CoinBook) AsksAsc() []PriceLevelView {
	return collectLevels(b.asks, false)
}

// PriceLevelView is a read-only snapshot of one price level.
type PriceLevelView struct {
	Price  Price
	Orders []orderEntry
}

func collectLevels(m *treemap.Map, reverse bool) []PriceLevelView {
	keys := m.Keys()
	out := make([]PriceLevelView, 0, len(keys))
	for _, k := range keys {
		raw, _ := m.Get(k)
		lvl := raw.(*level)
		cp := make([]orderEntry, len(lvl.orders))
		copy(cp, lvl.orders)
		out = append(out, PriceLevelView{Price: k.(Price), Orders: cp})
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
