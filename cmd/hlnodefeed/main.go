// hlnodefeed mirrors an upstream node's order books in memory by
// tailing its hourly log directories, and serves spread queries and
// wallet-scoped event subscriptions over a small WebSocket transport.
//
// Architecture:
//
//	main.go                    — entry point: loads config, wires every task, waits for SIGINT/SIGTERM
//	internal/reader            — rotation-aware tailing of <base>/hourly/<date>/<hour> log directories
//	internal/stream            — parses tailed lines into typed records
//	internal/feed              — one pipeline per log directory: parse → convert → forward
//	internal/orderbook         — in-memory CoinBook mirror, applied via compare-and-swap diffs
//	internal/snapshot          — cleanup/request/wait/load protocol against the upstream node
//	internal/sync              — warm-up (buffer+snapshot+replay) then live+periodic-resync
//	internal/events            — record → subscriber-facing Event conversion
//	internal/subscribe         — wallet subscription registry
//	internal/protocol          — wire envelope, request/response/event types, spread math
//	internal/transport         — WebSocket hub (publish/subscribe) and request/reply router
//
// Lifecycle: load config → start one tailer+parser pipeline per log
// directory → start the sync coordinator → start the transport server
// → wait for SIGINT/SIGTERM → cancel and wait up to a bounded deadline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"hlnodefeed/internal/config"
	"hlnodefeed/internal/feed"
	"hlnodefeed/internal/orderbook"
	"hlnodefeed/internal/protocol"
	"hlnodefeed/internal/snapshot"
	"hlnodefeed/internal/subscribe"
	coordsync "hlnodefeed/internal/sync"
	"hlnodefeed/internal/transport"
	"hlnodefeed/pkg/schema"
)

const shutdownDeadline = 5 * time.Second

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("HLF_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())

	books := orderbook.NewOrderBookService()
	subs := subscribe.NewRegistry()
	loader := snapshot.NewLoader(snapshot.Config{
		InfoURL:       cfg.Snapshot.InfoURL,
		ContainerPath: cfg.Snapshot.ContainerPath,
		HostPath:      cfg.Snapshot.HostPath,
	}, logger)
	coordinator := coordsync.New(coordsync.Config{
		ResyncInterval: cfg.Sync.ResyncInterval,
		StatsInterval:  cfg.Sync.StatsInterval,
	}, books, loader, logger)

	diffCh := make(chan schema.BookDiff, 1_000_000)
	eventCh := make(chan protocol.Event, 4096)

	var wg sync.WaitGroup
	taskErrs := make(chan error, 16)

	runTask := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Error("task exited", "task", name, "error", err)
				select {
				case taskErrs <- fmt.Errorf("%s: %w", name, err):
				default:
				}
			}
		}()
	}

	runTask("book-diffs", func(ctx context.Context) error {
		return feed.RunBookDiffs(ctx, cfg.Reader.BookDiffsDir, diffCh, eventCh, logger)
	})
	if cfg.Reader.TradesDir != "" {
		runTask("trades", func(ctx context.Context) error {
			return feed.RunEventRecords(ctx, cfg.Reader.TradesDir, feed.TradeConverter, eventCh, logger)
		})
	}
	if cfg.Reader.FillsDir != "" {
		runTask("fills", func(ctx context.Context) error {
			return feed.RunEventRecords(ctx, cfg.Reader.FillsDir, feed.FillConverter, eventCh, logger)
		})
	}
	if cfg.Reader.OrdersDir != "" {
		runTask("order-status", func(ctx context.Context) error {
			return feed.RunEventRecords(ctx, cfg.Reader.OrdersDir, feed.OrderStatusConverter, eventCh, logger)
		})
	}
	if cfg.Reader.TwapDir != "" {
		runTask("twap-status", func(ctx context.Context) error {
			return feed.RunEventRecords(ctx, cfg.Reader.TwapDir, feed.TwapStatusConverter, eventCh, logger)
		})
	}
	if cfg.Reader.MiscDir != "" {
		runTask("misc-events", func(ctx context.Context) error {
			return feed.RunEventRecords(ctx, cfg.Reader.MiscDir, feed.MiscEventConverter, eventCh, logger)
		})
	}

	runTask("sync-coordinator", func(ctx context.Context) error {
		return coordinator.Run(ctx, diffCh)
	})

	var httpServer *http.Server
	if cfg.Transport.Enabled {
		hub := transport.NewHub(logger)
		router := transport.NewRouter(books, subs, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			publishEvents(ctx, eventCh, hub, subs, logger)
		}()

		httpServer = transport.NewServer(cfg.Transport.Port, cfg.Transport.AllowedOrigins, hub, router, subs, logger)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("transport server failed", "error", err)
			}
		}()
		logger.Info("transport started", "port", cfg.Transport.Port)
	}

	logger.Info("hlnodefeed started", "book_diffs_dir", cfg.Reader.BookDiffsDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-taskErrs:
		logger.Error("shutting down after task failure", "error", err)
	}

	cancel()
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("transport shutdown error", "error", err)
		}
	}

	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownDeadline):
		logger.Warn("shutdown deadline exceeded, abandoning outstanding tasks")
	}
}

// publishEvents drains converted events and republishes each to every
// topic its subscribers registered for.
func publishEvents(ctx context.Context, in <-chan protocol.Event, hub *transport.Hub, subs *subscribe.Registry, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-in:
			topics := subs.MatchingTopics(ev)
			if len(topics) == 0 {
				continue
			}
			env := protocol.Envelope{ID: uuid.NewString(), Payload: ev}
			data, err := json.Marshal(env)
			if err != nil {
				logger.Warn("marshal event envelope", "error", err)
				continue
			}
			for _, topic := range topics {
				hub.Publish(topic, transport.MakePublishFrame(topic, data))
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
