package schema

import (
	"encoding/json"
	"fmt"
)

// DiffKind is a tagged union: exactly one of NewOrder, UpdateOrder or
// RemoveOrder. Modeled as a discriminated variant with a per-variant
// payload type, per the design note that the book-diff kind is a sum
// type rather than a flat struct with optional fields.
type DiffKind interface {
	isDiffKind()
}

// NewOrder introduces oid at the diff's price with the given size.
type NewOrder struct {
	Size string
}

// UpdateOrder resizes oid, guarded by OrigSize matching the book's
// recorded size.
type UpdateOrder struct {
	OrigSize string
	NewSize  string
}

// RemoveOrder deletes oid.
type RemoveOrder struct{}

func (NewOrder) isDiffKind()    {}
func (UpdateOrder) isDiffKind() {}
func (RemoveOrder) isDiffKind() {}

// BookDiff is one incremental change to an order book.
type BookDiff struct {
	User string
	Oid  uint64
	Coin string
	Side Side
	Px   string
	Kind DiffKind
}

type bookDiffWire struct {
	User     string `json:"user"`
	Oid      uint64 `json:"oid"`
	Coin     string `json:"coin"`
	Side     Side   `json:"side"`
	Px       string `json:"px"`
	Kind     string `json:"kind"`
	Size     string `json:"size,omitempty"`
	OrigSize string `json:"origSize,omitempty"`
	NewSize  string `json:"newSize,omitempty"`
}

func (d BookDiff) MarshalJSON() ([]byte, error) {
	w := bookDiffWire{User: d.User, Oid: d.Oid, Coin: d.Coin, Side: d.Side, Px: d.Px}
	switch k := d.Kind.(type) {
	case NewOrder:
		w.Kind = "new"
		w.Size = k.Size
	case UpdateOrder:
		w.Kind = "update"
		w.OrigSize = k.OrigSize
		w.NewSize = k.NewSize
	case RemoveOrder:
		w.Kind = "remove"
	default:
		return nil, fmt.Errorf("bookdiff: unknown kind %T", d.Kind)
	}
	return json.Marshal(w)
}

func (d *BookDiff) UnmarshalJSON(b []byte) error {
	var w bookDiffWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("bookdiff: %w", err)
	}
	d.User = w.User
	d.Oid = w.Oid
	d.Coin = w.Coin
	d.Side = w.Side
	d.Px = w.Px
	switch w.Kind {
	case "new":
		d.Kind = NewOrder{Size: w.Size}
	case "update":
		d.Kind = UpdateOrder{OrigSize: w.OrigSize, NewSize: w.NewSize}
	case "remove":
		d.Kind = RemoveOrder{}
	default:
		return fmt.Errorf("bookdiff: unrecognized kind %q", w.Kind)
	}
	return nil
}
