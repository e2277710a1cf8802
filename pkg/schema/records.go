package schema

import (
	"encoding/json"
	"fmt"
)

// SideInfo describes one side's participant in a Trade.
type SideInfo struct {
	User     string          `json:"user"`
	StartPos string          `json:"startPos,omitempty"`
	Oid      uint64          `json:"oid"`
	TwapID   *uint64         `json:"twapId,omitempty"`
	Cloid    json.RawMessage `json:"cloid,omitempty"`
}

// Trade is a matched execution between two resting orders.
type Trade struct {
	Coin             string      `json:"coin"`
	Side             Side        `json:"side"`
	Time             int64       `json:"time"`
	Px               string      `json:"px"`
	Sz               string      `json:"sz"`
	Hash             string      `json:"hash"`
	TradeDirOverride string      `json:"tradeDirOverride,omitempty"`
	SideInfo         [2]SideInfo `json:"sideInfo"`
}

// FillData is the per-fill detail for one participant of a Trade.
type FillData struct {
	Coin          string          `json:"coin"`
	Px            string          `json:"px"`
	Sz            string          `json:"sz"`
	Side          Side            `json:"side"`
	Time          int64           `json:"time"`
	StartPosition string          `json:"startPosition,omitempty"`
	Dir           string          `json:"dir,omitempty"`
	ClosedPnl     string          `json:"closedPnl,omitempty"`
	Hash          string          `json:"hash"`
	Oid           uint64          `json:"oid"`
	Crossed       bool            `json:"crossed"`
	Fee           string          `json:"fee,omitempty"`
	Tid           uint64          `json:"tid"`
	FeeToken      string          `json:"feeToken,omitempty"`
	Cloid         json.RawMessage `json:"cloid,omitempty"`
	TwapID        *uint64         `json:"twapId,omitempty"`
	BuilderFee    string          `json:"builderFee,omitempty"`
	Builder       string          `json:"builder,omitempty"`
}

// Fill is one user's record of a trade. On the wire it is the
// two-element array [user, fillData].
type Fill struct {
	User string
	Data FillData
}

func (f *Fill) UnmarshalJSON(b []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &f.User); err != nil {
		return fmt.Errorf("fill: user: %w", err)
	}
	return json.Unmarshal(tuple[1], &f.Data)
}

func (f Fill) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{f.User, f.Data})
}

// OrderStatus reports a status transition for a resting order.
type OrderStatus struct {
	Time   int64  `json:"time"`
	User   string `json:"user"`
	Status string `json:"status"`
	Order  Order  `json:"order"`
}

// TwapState describes a running TWAP execution.
type TwapState struct {
	Coin        string  `json:"coin"`
	User        string  `json:"user"`
	Side        Side    `json:"side"`
	Sz          string  `json:"sz"`
	ExecutedSz  string  `json:"executedSz"`
	ExecutedNtl string  `json:"executedNtl"`
	Minutes     int     `json:"minutes"`
	ReduceOnly  bool    `json:"reduceOnly"`
	Randomize   bool    `json:"randomize"`
	Timestamp   int64   `json:"timestamp"`
}

// TwapStatus reports a TWAP's lifecycle. Status is either a bare
// string ("activated", "finished", ...) or {"error": "..."}; both
// forms unmarshal into StatusValue/StatusError.
type TwapStatus struct {
	Time        int64     `json:"time"`
	TwapID      uint64    `json:"twapId"`
	State       TwapState `json:"state"`
	StatusValue string    `json:"-"`
	StatusError string    `json:"-"`
}

type twapStatusWire struct {
	Time   int64           `json:"time"`
	TwapID uint64          `json:"twapId"`
	State  TwapState       `json:"state"`
	Status json.RawMessage `json:"status"`
}

func (t *TwapStatus) UnmarshalJSON(b []byte) error {
	var w twapStatusWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("twap status: %w", err)
	}
	t.Time, t.TwapID, t.State = w.Time, w.TwapID, w.State

	var plain string
	if err := json.Unmarshal(w.Status, &plain); err == nil {
		t.StatusValue = plain
		return nil
	}
	var errObj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Status, &errObj); err != nil {
		return fmt.Errorf("twap status: status: %w", err)
	}
	t.StatusError = errObj.Error
	return nil
}

func (t TwapStatus) MarshalJSON() ([]byte, error) {
	w := twapStatusWire{Time: t.Time, TwapID: t.TwapID, State: t.State}
	if t.StatusError != "" {
		raw, err := json.Marshal(struct {
			Error string `json:"error"`
		}{t.StatusError})
		if err != nil {
			return nil, err
		}
		w.Status = raw
	} else {
		raw, err := json.Marshal(t.StatusValue)
		if err != nil {
			return nil, err
		}
		w.Status = raw
	}
	return json.Marshal(w)
}

// SystemAction is an opaque administrative action taken against a
// user's account (e.g. liquidation, ADL). Action is carried through
// unparsed since its shape varies by action type.
type SystemAction struct {
	User      string          `json:"user"`
	Nonce     uint64          `json:"nonce"`
	EvmTxHash string          `json:"evmTxHash,omitempty"`
	Action    json.RawMessage `json:"action"`
}

// MiscEvent is a catch-all for any record kind not otherwise
// recognized. Addr is extracted best-effort from a top-level "user"
// or "address" field so it can still be routed to subscribers.
type MiscEvent struct {
	Addr string
	Raw  json.RawMessage
}

func (m *MiscEvent) UnmarshalJSON(b []byte) error {
	m.Raw = append(json.RawMessage(nil), b...)
	var probe struct {
		User    string `json:"user"`
		Address string `json:"address"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("misc event: %w", err)
	}
	if probe.User != "" {
		m.Addr = probe.User
	} else {
		m.Addr = probe.Address
	}
	return nil
}

func (m MiscEvent) MarshalJSON() ([]byte, error) {
	if len(m.Raw) == 0 {
		return []byte("null"), nil
	}
	return m.Raw, nil
}
