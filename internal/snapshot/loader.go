// Package snapshot implements the four-phase protocol for acquiring a
// full order-book dump from the upstream node: cleanup, request, wait,
// load.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"hlnodefeed/internal/orderbook"
	"hlnodefeed/pkg/schema"
)

// waitPollInterval is how often the wait phase checks the host
// snapshot path for a file past the size threshold.
const waitPollInterval = 100 * time.Millisecond

// sizeThreshold guards against acting on a zero-length placeholder the
// upstream node may create before it starts writing.
const sizeThreshold = 1000

// settleDelay is the pause after the size threshold is met, to let the
// upstream writer finish closing the file before this process reads it.
const settleDelay = 200 * time.Millisecond

// Config names the endpoints and paths the loader needs. ContainerPath
// is the path as seen by the upstream node (sent in the request body);
// HostPath is the same file as seen by this process.
type Config struct {
	InfoURL     string
	ContainerPath string
	HostPath    string
}

// Loader drives the cleanup/request/wait/load protocol against one
// upstream node.
type Loader struct {
	cfg    Config
	http   *resty.Client
	rl     *tokenBucket
	logger *slog.Logger
}

// NewLoader builds a Loader with a retrying HTTP client, grounded on
// the pack's resty-with-retry client pattern. Requests are limited to
// 1 burst of 3 and a steady 1-per-2s thereafter; a resync loop that
// mistakenly ticks far faster than intended still cannot flood the
// upstream node.
func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	httpClient := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Loader{
		cfg:    cfg,
		http:   httpClient,
		rl:     newTokenBucket(3, 0.5),
		logger: logger.With("component", "snapshot-loader"),
	}
}

// snapshotRequestBody is the exact payload the upstream node expects
// for a full L4 snapshot dump.
type snapshotRequestBody struct {
	Type    string `json:"type"`
	Request struct {
		Type                 string `json:"type"`
		IncludeUsers         bool   `json:"includeUsers"`
		IncludeTriggerOrders bool   `json:"includeTriggerOrders"`
	} `json:"request"`
	OutPath               string `json:"outPath"`
	IncludeHeightInOutput bool   `json:"includeHeightInOutput"`
}

// Cleanup removes any stale snapshot file left over at the host path
// from a previous attempt.
func (l *Loader) Cleanup() error {
	if err := os.Remove(l.cfg.HostPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cleanup stale snapshot: %w", err)
	}
	return nil
}

// Request issues the HTTP POST asking the upstream node to write a
// fresh snapshot to ContainerPath. A non-2xx response or transport
// error is retryable by the caller.
func (l *Loader) Request(ctx context.Context) error {
	if err := l.rl.wait(ctx); err != nil {
		return fmt.Errorf("snapshot request: %w", err)
	}

	body := snapshotRequestBody{
		Type:                  "fileSnapshot",
		OutPath:               l.cfg.ContainerPath,
		IncludeHeightInOutput: true,
	}
	body.Request.Type = "l4Snapshots"
	body.Request.IncludeUsers = true
	body.Request.IncludeTriggerOrders = false

	resp, err := l.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(l.cfg.InfoURL)
	if err != nil {
		return fmt.Errorf("snapshot request: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("snapshot request: status %d", resp.StatusCode())
	}
	return nil
}

// Wait polls HostPath until a file appears past sizeThreshold, then
// pauses briefly to let the writer finish closing it. Returns an
// error if ctx is done first (retryable by the caller).
func (l *Loader) Wait(ctx context.Context) error {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		if info, err := os.Stat(l.cfg.HostPath); err == nil && info.Size() > sizeThreshold {
			select {
			case <-time.After(settleDelay):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("wait for snapshot: %w", ctx.Err())
		}
	}
}

// Load reads, parses, and converts HostPath into one fresh CoinBook
// per instrument, installing each into svc via Set. Returns the
// snapshot's block height. A parse error here is fatal to this
// attempt; the caller decides retry posture.
func (l *Loader) Load(svc *orderbook.OrderBookService) (uint64, error) {
	data, err := os.ReadFile(l.cfg.HostPath)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}

	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("parse snapshot: %w", err)
	}

	for _, coinSnap := range snap.Coins {
		book := orderbook.NewCoinBook(coinSnap.Coin)
		installSide(book, schema.SideBid, coinSnap.Bids)
		installSide(book, schema.SideAsk, coinSnap.Asks)
		svc.Set(book)
	}

	l.logger.Info("snapshot loaded", "block_height", snap.BlockHeight, "coins", len(snap.Coins))
	return snap.BlockHeight, nil
}

func installSide(book *orderbook.CoinBook, side schema.Side, orders []schema.UserOrder) {
	for _, uo := range orders {
		price, err := orderbook.ParsePrice(uo.Order.LimitPx)
		if err != nil {
			continue
		}
		size, err := orderbook.ParseSize(uo.Order.Sz)
		if err != nil {
			continue
		}
		book.Insert(uo.Order.Oid, side, price, uo.User, size)
	}
}
