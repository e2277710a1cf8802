// Package sync drives the warm-up and steady-state life cycle that
// keeps OrderBookService current: buffer-and-replay against a fresh
// snapshot on startup, then live diff application interleaved with
// periodic resync.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hlnodefeed/internal/orderbook"
	"hlnodefeed/internal/snapshot"
	"hlnodefeed/pkg/schema"
)

// Phase names the coordinator's place in its state machine.
type Phase int

const (
	PhaseWarmup Phase = iota
	PhaseLive
	PhaseResyncing
)

func (p Phase) String() string {
	switch p {
	case PhaseWarmup:
		return "warmup"
	case PhaseResyncing:
		return "resyncing"
	default:
		return "live"
	}
}

// Config controls resync cadence and stats logging.
type Config struct {
	ResyncInterval time.Duration
	StatsInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.ResyncInterval <= 0 {
		c.ResyncInterval = 10 * time.Second
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = 10 * time.Second
	}
	return c
}

// Coordinator owns the Warmup → Live ⇄ Resyncing state machine. It is
// the single writer applying book diffs and installing snapshots for
// the OrderBookService it was built with.
type Coordinator struct {
	cfg    Config
	books  *orderbook.OrderBookService
	loader *snapshot.Loader
	logger *slog.Logger

	phase       Phase
	applied     uint64
	skipped     uint64
	blockHeight uint64
}

// New builds a coordinator. Its Run method must be started once in a
// long-lived task.
func New(cfg Config, books *orderbook.OrderBookService, loader *snapshot.Loader, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cfg:    cfg.withDefaults(),
		books:  books,
		loader: loader,
		logger: logger.With("component", "sync-coordinator"),
		phase:  PhaseWarmup,
	}
}

// Phase returns the coordinator's current state, for diagnostics.
func (c *Coordinator) Phase() Phase {
	return c.phase
}

// Run drives warm-up then steady-state processing of diffs from in,
// until ctx is cancelled. It owns the only write path to books.
func (c *Coordinator) Run(ctx context.Context, in <-chan schema.BookDiff) error {
	if err := c.warmup(ctx, in); err != nil {
		return fmt.Errorf("sync: warmup: %w", err)
	}
	c.phase = PhaseLive
	c.logger.Info("warmup complete, entering live phase", "block_height", c.blockHeight)
	return c.steadyState(ctx, in)
}

// warmup buffers diffs while a snapshot is fetched and installed, then
// replays the buffer against the freshly-installed books.
func (c *Coordinator) warmup(ctx context.Context, in <-chan schema.BookDiff) error {
	buffer := make([]schema.BookDiff, 0, 1024)
	snapDone := make(chan struct{})
	var snapErr error
	var height uint64

	go func() {
		defer close(snapDone)
		if err := c.loader.Cleanup(); err != nil {
			snapErr = err
			return
		}
		if err := c.loader.Request(ctx); err != nil {
			snapErr = err
			return
		}
		if err := c.loader.Wait(ctx); err != nil {
			snapErr = err
			return
		}
		h, err := c.loader.Load(c.books)
		if err != nil {
			snapErr = err
			return
		}
		height = h
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case diff, ok := <-in:
			if !ok {
				return fmt.Errorf("diff channel closed during warmup")
			}
			buffer = append(buffer, diff)
		case <-snapDone:
			if snapErr != nil {
				return snapErr
			}
			c.blockHeight = height
			c.replay(buffer)
			return nil
		}
	}
}

func (c *Coordinator) replay(buffer []schema.BookDiff) {
	for _, diff := range buffer {
		c.apply(diff)
	}
	c.logger.Info("warmup replay complete", "buffered", len(buffer), "applied", c.applied, "skipped", c.skipped)
}

// steadyState applies live diffs while alternating Live and Resyncing
// on a fixed tick, and logs aggregate stats on a second, independent
// tick.
func (c *Coordinator) steadyState(ctx context.Context, in <-chan schema.BookDiff) error {
	resyncTicker := time.NewTicker(c.cfg.ResyncInterval)
	defer resyncTicker.Stop()
	statsTicker := time.NewTicker(c.cfg.StatsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case diff, ok := <-in:
			if !ok {
				return fmt.Errorf("diff channel closed during live phase")
			}
			c.apply(diff)

		case <-resyncTicker.C:
			c.resync(ctx)

		case <-statsTicker.C:
			c.logStats()
		}
	}
}

func (c *Coordinator) apply(diff schema.BookDiff) {
	outcome := c.books.ApplyDiff(diff)
	if outcome == orderbook.Applied {
		c.applied++
	} else {
		c.skipped++
	}
}

// resync requests and installs a fresh snapshot without interrupting
// live diff application; a failed attempt is logged and left for the
// next tick, per the error-handling design's "no halt" requirement.
func (c *Coordinator) resync(ctx context.Context) {
	c.phase = PhaseResyncing
	defer func() { c.phase = PhaseLive }()

	if err := c.loader.Cleanup(); err != nil {
		c.logger.Warn("resync cleanup failed", "error", err)
		return
	}
	if err := c.loader.Request(ctx); err != nil {
		c.logger.Warn("resync request failed", "error", err)
		return
	}
	if err := c.loader.Wait(ctx); err != nil {
		c.logger.Warn("resync wait failed", "error", err)
		return
	}
	height, err := c.loader.Load(c.books)
	if err != nil {
		c.logger.Warn("resync load failed", "error", err)
		return
	}
	c.blockHeight = height
	c.logger.Info("resync installed fresh snapshot", "block_height", height)
}

func (c *Coordinator) logStats() {
	stats := c.books.Stats()
	c.logger.Info("sync stats",
		"phase", c.phase.String(),
		"applied", c.applied,
		"skipped", c.skipped,
		"coins", stats.Coins,
		"total_orders", stats.TotalOrders,
		"bid_levels", stats.BidLevels,
		"ask_levels", stats.AskLevels,
		"block_height", c.blockHeight,
	)
}
