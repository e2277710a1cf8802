package subscribe

import (
	"sync"

	"github.com/google/uuid"

	"hlnodefeed/internal/protocol"
)

// Subscription is one registered wallet subscription.
type Subscription struct {
	ID      string
	Topic   string
	matcher WalletMatcher
}

// Registry holds every live subscription, indexed both by id and by
// topic. Unsubscribe is O(1) amortized; MatchingTopics scans every
// subscription.
type Registry struct {
	mu            sync.RWMutex
	subscriptions map[string]Subscription
	byTopic       map[string]map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		subscriptions: make(map[string]Subscription),
		byTopic:       make(map[string]map[string]struct{}),
	}
}

// SubscribeWallet registers a new subscription for addr, returning its
// id and topic.
func (r *Registry) SubscribeWallet(addr string) (Subscription, error) {
	matcher, err := NewWalletMatcher(addr)
	if err != nil {
		return Subscription{}, err
	}

	sub := Subscription{
		ID:      uuid.NewString(),
		Topic:   matcher.Topic(),
		matcher: matcher,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[sub.ID] = sub
	if r.byTopic[sub.Topic] == nil {
		r.byTopic[sub.Topic] = make(map[string]struct{})
	}
	r.byTopic[sub.Topic][sub.ID] = struct{}{}
	return sub, nil
}

// Unsubscribe removes id from both indexes, returning the topic it was
// registered under. ok is false if id was not present.
func (r *Registry) Unsubscribe(id string) (topic string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subscriptions[id]
	if !ok {
		return "", false
	}
	delete(r.subscriptions, id)
	if set := r.byTopic[sub.Topic]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byTopic, sub.Topic)
		}
	}
	return sub.Topic, true
}

// MatchingTopics returns the topics of every subscription whose
// matcher accepts event's address.
func (r *Registry) MatchingTopics(event protocol.Event) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var topics []string
	for _, sub := range r.subscriptions {
		if sub.matcher.Matches(event.Address) {
			topics = append(topics, sub.Topic)
		}
	}
	return topics
}
