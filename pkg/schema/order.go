package schema

import "encoding/json"

// Order is the full upstream order shape, retained verbatim. Size and
// price travel as decimal strings on the wire; callers parse the price
// into orderbook.Price and the size with orderbook.ParseSize where
// arithmetic or ordering is needed.
type Order struct {
	Coin             string          `json:"coin"`
	Side             Side            `json:"side"`
	LimitPx          string          `json:"limitPx"`
	Sz               string          `json:"sz"`
	Oid              uint64          `json:"oid"`
	Timestamp        int64           `json:"timestamp"`
	TriggerCondition string          `json:"triggerCondition,omitempty"`
	IsTrigger        bool            `json:"isTrigger"`
	TriggerPx        string          `json:"triggerPx,omitempty"`
	Children         []uint64        `json:"children,omitempty"`
	IsPositionTpsl   bool            `json:"isPositionTpsl"`
	ReduceOnly       bool            `json:"reduceOnly"`
	OrderType        string          `json:"orderType,omitempty"`
	OrigSz           string          `json:"origSz,omitempty"`
	Tif              string          `json:"tif,omitempty"`
	Cloid            json.RawMessage `json:"cloid,omitempty"`
}

// UserOrder pairs an order with the wallet address that placed it. On
// the wire it is a two-element array [user, order], not a JSON object.
type UserOrder struct {
	User  string
	Order Order
}

func (u UserOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{u.User, u.Order})
}

func (u *UserOrder) UnmarshalJSON(b []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return err
	}
	if err := json.Unmarshal(tuple[0], &u.User); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &u.Order)
}
