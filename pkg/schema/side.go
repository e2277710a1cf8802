// Package schema defines the wire-level record shapes produced by the
// upstream node's log files and snapshot dumps. Field names follow the
// upstream's camelCase convention verbatim; only the Go identifiers are
// idiomatic.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is a book side. The upstream feed spells it four ways across
// different record kinds ("B"/"A" and "Bid"/"Ask"); UnmarshalJSON
// normalizes all of them.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	if s == SideBid {
		return "Bid"
	}
	return "Ask"
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("side: %w", err)
	}
	switch strings.ToLower(raw) {
	case "b", "bid":
		*s = SideBid
	case "a", "ask":
		*s = SideAsk
	default:
		return fmt.Errorf("side: unrecognized spelling %q", raw)
	}
	return nil
}
