package transport

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hlnodefeed/internal/subscribe"
)

// NewServer builds an *http.Server exposing a single /ws endpoint: each
// accepted connection becomes a Client registered with hub, with its
// inbound request envelopes dispatched through router. The connection
// itself is the client's identity; no separate identity-frame handling
// is needed on top of it. subs is the subscription registry backing
// router's SubscribeWallet/Unsubscribe handlers; each client releases
// its own subscriptions from it on disconnect.
func NewServer(port int, allowedOrigins []string, hub *Hub, router *Router, subs *subscribe.Registry, logger *slog.Logger) *http.Server {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r.Header.Get("Origin"), r.Host, allowedOrigins)
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", "error", err)
			return
		}
		client := NewClient(hub, conn, subs)
		go func() {
			for raw := range client.Requests() {
				router.Handle(client, raw)
			}
		}()
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func isOriginAllowed(origin, reqHost string, allowed []string) bool {
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(originURL.Hostname())

	if len(allowed) > 0 {
		for _, a := range allowed {
			au, err := url.Parse(a)
			if err == nil && strings.ToLower(au.Hostname()) == host {
				return true
			}
			if strings.EqualFold(a, host) {
				return true
			}
		}
		return false
	}

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	reqHostname := normalizeHost(reqHost)
	return reqHostname != "" && host == reqHostname
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
