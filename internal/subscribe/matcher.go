// Package subscribe tracks wallet subscriptions and matches incoming
// events against them, grounded on the original implementation's
// StreamManager/WalletStream pair.
package subscribe

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// WalletMatcher matches events concerning one lower-cased wallet
// address.
type WalletMatcher struct {
	address string
}

// NewWalletMatcher validates addr as a hex address and lower-cases it
// for comparison.
func NewWalletMatcher(addr string) (WalletMatcher, error) {
	if !common.IsHexAddress(addr) {
		return WalletMatcher{}, fmt.Errorf("subscribe: %q is not a valid wallet address", addr)
	}
	return WalletMatcher{address: strings.ToLower(addr)}, nil
}

// Topic is the pub/sub topic this subscription publishes and consumes
// under.
func (m WalletMatcher) Topic() string {
	return "wallet:" + m.address
}

// Matches reports whether addr (case-insensitively) is the address
// this matcher was built for.
func (m WalletMatcher) Matches(addr string) bool {
	return strings.ToLower(addr) == m.address
}
