package schema

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the upstream node's full-state dump: a block height and,
// for every instrument, the resting orders on each side. On the wire
// it is the two-element array [blockHeight, coinEntries].
type Snapshot struct {
	BlockHeight uint64
	Coins       []CoinSnapshot
}

// CoinSnapshot is one instrument's resting book at the snapshot's
// block height. On the wire it is the two-element array
// [coin, [bidsArray, asksArray]].
type CoinSnapshot struct {
	Coin string
	Bids []UserOrder
	Asks []UserOrder
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var tuple [2]json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := json.Unmarshal(tuple[0], &s.BlockHeight); err != nil {
		return fmt.Errorf("snapshot: block height: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &s.Coins); err != nil {
		return fmt.Errorf("snapshot: coins: %w", err)
	}
	return nil
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{s.BlockHeight, s.Coins})
}

func (c *CoinSnapshot) UnmarshalJSON(b []byte) error {
	var outer [2]json.RawMessage
	if err := json.Unmarshal(b, &outer); err != nil {
		return fmt.Errorf("coin snapshot: %w", err)
	}
	if err := json.Unmarshal(outer[0], &c.Coin); err != nil {
		return fmt.Errorf("coin snapshot: coin: %w", err)
	}
	var sides [2]json.RawMessage
	if err := json.Unmarshal(outer[1], &sides); err != nil {
		return fmt.Errorf("coin snapshot: sides: %w", err)
	}
	if err := json.Unmarshal(sides[0], &c.Bids); err != nil {
		return fmt.Errorf("coin snapshot: bids: %w", err)
	}
	if err := json.Unmarshal(sides[1], &c.Asks); err != nil {
		return fmt.Errorf("coin snapshot: asks: %w", err)
	}
	return nil
}

func (c CoinSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{c.Coin, [2]interface{}{c.Bids, c.Asks}})
}
