package subscribe

import (
	"testing"

	"hlnodefeed/internal/protocol"
)

const addr = "0x1234567890123456789012345678901234567890"

func TestSubscribeWalletLowercasesTopic(t *testing.T) {
	r := NewRegistry()
	sub, err := r.SubscribeWallet(addr)
	if err != nil {
		t.Fatalf("SubscribeWallet: %v", err)
	}
	want := "wallet:0x1234567890123456789012345678901234567890"
	if sub.Topic != want {
		t.Fatalf("Topic = %q, want %q", sub.Topic, want)
	}
}

func TestSubscribeWalletRejectsInvalidAddress(t *testing.T) {
	r := NewRegistry()
	if _, err := r.SubscribeWallet("not-an-address"); err == nil {
		t.Fatal("SubscribeWallet accepted an invalid address")
	}
}

func TestMatchingTopicsIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	sub, err := r.SubscribeWallet(addr)
	if err != nil {
		t.Fatalf("SubscribeWallet: %v", err)
	}

	ev := protocol.Event{Address: "0X1234567890123456789012345678901234567890"}
	topics := r.MatchingTopics(ev)
	if len(topics) != 1 || topics[0] != sub.Topic {
		t.Fatalf("topics = %v, want [%s]", topics, sub.Topic)
	}
}

func TestUnsubscribeRemovesBothIndexes(t *testing.T) {
	r := NewRegistry()
	sub, err := r.SubscribeWallet(addr)
	if err != nil {
		t.Fatalf("SubscribeWallet: %v", err)
	}
	if _, ok := r.Unsubscribe(sub.ID); !ok {
		t.Fatal("Unsubscribe returned false for a live subscription")
	}
	if _, ok := r.Unsubscribe(sub.ID); ok {
		t.Fatal("Unsubscribe returned true twice for the same id")
	}
	ev := protocol.Event{Address: addr}
	if topics := r.MatchingTopics(ev); len(topics) != 0 {
		t.Fatalf("topics after unsubscribe = %v, want none", topics)
	}
}
