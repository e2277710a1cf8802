package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"hlnodefeed/internal/orderbook"
	"hlnodefeed/internal/protocol"
	"hlnodefeed/internal/subscribe"
)

// Router dispatches one request handler per protocol.Request kind. A
// client connection doubles as its own identity frame: the reply for a
// request is written back over the same connection it arrived on, so
// there is no separate identity-framing layer to maintain.
type Router struct {
	books  *orderbook.OrderBookService
	subs   *subscribe.Registry
	logger *slog.Logger
}

// NewRouter builds a router backed by the given order book service and
// subscription registry.
func NewRouter(books *orderbook.OrderBookService, subs *subscribe.Registry, logger *slog.Logger) *Router {
	return &Router{books: books, subs: subs, logger: logger.With("component", "router")}
}

// Handle decodes one inbound envelope, dispatches it, and sends the
// reply envelope (same ID) back on client.
func (r *Router) Handle(client *Client, raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warn("malformed request envelope", "error", err)
		return
	}

	reqBytes, err := json.Marshal(env.Payload)
	if err != nil {
		r.logger.Warn("re-encoding request payload", "error", err)
		return
	}
	var req protocol.Request
	if err := json.Unmarshal(reqBytes, &req); err != nil {
		r.logger.Warn("malformed request payload", "error", err)
		return
	}

	resp := r.dispatch(client, req)
	out, err := json.Marshal(protocol.Envelope{ID: env.ID, Payload: resp})
	if err != nil {
		r.logger.Error("marshal response envelope", "error", err)
		return
	}
	client.Send(out)
}

func (r *Router) dispatch(client *Client, req protocol.Request) protocol.Response {
	switch {
	case req.Ping != nil:
		return protocol.Response{Pong: &protocol.PongResponse{}}

	case req.GetSpread != nil:
		return r.handleGetSpread(req.GetSpread.Coin)

	case req.SubscribeWallet != nil:
		return r.handleSubscribeWallet(client, req.SubscribeWallet.Address)

	case req.Unsubscribe != nil:
		return r.handleUnsubscribe(client, req.Unsubscribe.SubscriptionID)

	default:
		return protocol.Response{Error: &protocol.ErrorResponse{Message: "empty or unrecognized request"}}
	}
}

func (r *Router) handleGetSpread(coin string) protocol.Response {
	book, ok := r.books.Get(coin)
	if !ok {
		return protocol.Response{Error: &protocol.ErrorResponse{Message: fmt.Sprintf("coin %s not found", coin)}}
	}
	bid, ask, spreadAbs, ok := book.Spread()
	if !ok {
		return protocol.Response{Error: &protocol.ErrorResponse{Message: "no spread available"}}
	}
	spread := protocol.ComputeSpread(coin, bid.Decimal(), ask.Decimal(), spreadAbs.Decimal())
	return protocol.Response{Spread: &spread}
}

func (r *Router) handleSubscribeWallet(client *Client, addr string) protocol.Response {
	sub, err := r.subs.SubscribeWallet(addr)
	if err != nil {
		return protocol.Response{Error: &protocol.ErrorResponse{Message: err.Error()}}
	}
	client.Subscribe(sub.ID, sub.Topic)
	return protocol.Response{Subscribed: &protocol.SubscribedResponse{SubscriptionID: sub.ID}}
}

func (r *Router) handleUnsubscribe(client *Client, id string) protocol.Response {
	topic, ok := r.subs.Unsubscribe(id)
	if !ok {
		return protocol.Response{Error: &protocol.ErrorResponse{Message: fmt.Sprintf("subscription %s not found", id)}}
	}
	client.Unsubscribe(id, topic)
	return protocol.Response{Unsubscribed: &protocol.UnsubscribedResponse{}}
}
