// Package events converts parsed wire records into subscriber-facing
// protocol.Event values, grounded on the original implementation's
// from_* converter functions: one function per record kind, each
// returning the event(s) plus the wallet address they concern so the
// transport layer can route without re-parsing.
package events

import (
	"encoding/json"

	"hlnodefeed/internal/protocol"
	"hlnodefeed/pkg/schema"
)

func bookDiffKind(k schema.DiffKind) string {
	switch k.(type) {
	case schema.NewOrder:
		return "new"
	case schema.UpdateOrder:
		return "update"
	default:
		return "remove"
	}
}

// FromBookDiff converts one parsed book diff into a wallet event,
// whether or not the diff is later applied or skipped.
func FromBookDiff(diff schema.BookDiff) protocol.Event {
	return protocol.Event{
		Address: diff.User,
		BookDiff: &protocol.WalletBookDiffEvent{
			Coin: diff.Coin,
			Kind: bookDiffKind(diff.Kind),
			Oid:  diff.Oid,
		},
	}
}

// FromTrade converts one trade into one event per side (buyer and
// seller), mirroring the two-participant sideInfo tuple.
func FromTrade(trade schema.Trade) []protocol.Event {
	out := make([]protocol.Event, 0, 2)
	for _, info := range trade.SideInfo {
		out = append(out, protocol.Event{
			Address: info.User,
			Trade: &protocol.WalletTradeEvent{
				Coin: trade.Coin,
				Side: trade.Side.String(),
				Px:   trade.Px,
				Sz:   trade.Sz,
				Hash: trade.Hash,
			},
		})
	}
	return out
}

// FromFill converts one user's fill record into an event.
func FromFill(fill schema.Fill) protocol.Event {
	return protocol.Event{
		Address: fill.User,
		Fill: &protocol.WalletFillEvent{
			Coin: fill.Data.Coin,
			Side: fill.Data.Side.String(),
			Px:   fill.Data.Px,
			Sz:   fill.Data.Sz,
			Oid:  fill.Data.Oid,
			Tid:  fill.Data.Tid,
		},
	}
}

// FromOrderStatus converts a status transition into an event.
func FromOrderStatus(status schema.OrderStatus) protocol.Event {
	return protocol.Event{
		Address: status.User,
		OrderStatus: &protocol.WalletOrderStatusEvent{
			Status: status.Status,
			Oid:    status.Order.Oid,
		},
	}
}

// FromTwapStatus converts a TWAP lifecycle record into an event. The
// status string is the plain value if present, else "error: <message>".
func FromTwapStatus(twap schema.TwapStatus) protocol.Event {
	status := twap.StatusValue
	if twap.StatusError != "" {
		status = "error: " + twap.StatusError
	}
	return protocol.Event{
		Address: twap.State.User,
		TwapStatus: &protocol.WalletTwapStatusEvent{
			TwapID: twap.TwapID,
			Status: status,
		},
	}
}

// FromSystemAction converts an administrative action into an event.
func FromSystemAction(action schema.SystemAction) protocol.Event {
	return protocol.Event{
		Address: action.User,
		SystemAction: &protocol.WalletSystemActionEvent{
			Nonce: action.Nonce,
		},
	}
}

// FromMiscEvent converts an unrecognized record into a catch-all
// event. Raw carries the original record so a subscriber that knows
// the specific shape can decode it.
func FromMiscEvent(event schema.MiscEvent) protocol.Event {
	var raw any = event.Raw
	var decoded any
	if json.Unmarshal(event.Raw, &decoded) == nil {
		raw = decoded
	}
	return protocol.Event{
		Address: event.Addr,
		MiscEvent: &protocol.WalletMiscEvent{
			Raw: raw,
		},
	}
}
