package orderbook

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"hlnodefeed/pkg/schema"
)

func TestServiceApplyDiffCreatesBookOnFirstObservation(t *testing.T) {
	t.Parallel()
	svc := NewOrderBookService()
	diff := schema.BookDiff{Oid: 1, Coin: "BTC", Side: schema.SideBid, Px: "100", Kind: schema.NewOrder{Size: "1"}}

	if out := svc.ApplyDiff(diff); out != Applied {
		t.Fatalf("outcome = %v, want Applied", out)
	}
	book, ok := svc.Get("BTC")
	if !ok {
		t.Fatal("book not created")
	}
	if !book.Contains(1) {
		t.Fatal("diff not reflected in published book")
	}
}

func TestServiceSetReplacesWholesale(t *testing.T) {
	t.Parallel()
	svc := NewOrderBookService()
	svc.ApplyDiff(schema.BookDiff{Oid: 1, Coin: "BTC", Side: schema.SideBid, Px: "100", Kind: schema.NewOrder{Size: "1"}})

	fresh := NewCoinBook("BTC")
	fresh.Insert(2, schema.SideAsk, mustPriceNoT("101"), "0xb", mustDecimalNoT("5"))
	svc.Set(fresh)

	book, _ := svc.Get("BTC")
	if book.Contains(1) {
		t.Fatal("Set did not replace previous book wholesale")
	}
	if !book.Contains(2) {
		t.Fatal("Set did not publish the new book's contents")
	}
}

func TestServiceConcurrentWritersPreserveEachApply(t *testing.T) {
	t.Parallel()
	svc := NewOrderBookService()

	var wg sync.WaitGroup
	for i := uint64(1); i <= 100; i++ {
		wg.Add(1)
		go func(oid uint64) {
			defer wg.Done()
			svc.ApplyDiff(schema.BookDiff{Oid: oid, Coin: "BTC", Side: schema.SideBid, Px: "100", Kind: schema.NewOrder{Size: "1"}})
		}(i)
	}
	wg.Wait()

	book, ok := svc.Get("BTC")
	if !ok {
		t.Fatal("book missing")
	}
	if book.TotalOrders() != 100 {
		t.Fatalf("total orders = %d, want 100", book.TotalOrders())
	}
}

func TestServiceStatsAggregatesAcrossCoins(t *testing.T) {
	t.Parallel()
	svc := NewOrderBookService()
	svc.ApplyDiff(schema.BookDiff{Oid: 1, Coin: "BTC", Side: schema.SideBid, Px: "100", Kind: schema.NewOrder{Size: "1"}})
	svc.ApplyDiff(schema.BookDiff{Oid: 2, Coin: "ETH", Side: schema.SideAsk, Px: "10", Kind: schema.NewOrder{Size: "1"}})

	stats := svc.Stats()
	if stats.Coins != 2 {
		t.Fatalf("coins = %d, want 2", stats.Coins)
	}
	if stats.TotalOrders != 2 {
		t.Fatalf("total orders = %d, want 2", stats.TotalOrders)
	}
}

func mustPriceNoT(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func mustDecimalNoT(s string) decimal.Decimal {
	d, err := parseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}
