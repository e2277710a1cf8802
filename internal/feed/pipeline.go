// Package feed wires one log directory's TailReader through a
// TypedStream into either the book-diff channel consumed by the sync
// coordinator, or the event channel consumed by the transport hub.
package feed

import (
	"context"
	"fmt"
	"log/slog"

	"hlnodefeed/internal/events"
	"hlnodefeed/internal/protocol"
	"hlnodefeed/internal/reader"
	"hlnodefeed/internal/stream"
	"hlnodefeed/pkg/schema"
)

// RunBookDiffs tails dir, parses each line as a schema.BookDiff, and
// forwards it both to diffOut (consumed by the sync coordinator) and,
// converted to a wallet event, to eventOut (consumed by the transport
// hub). A parse error on a single record is logged and skipped, not
// fatal; a tailer failure is returned to the caller so the owning task
// can exit.
func RunBookDiffs(ctx context.Context, dir string, diffOut chan<- schema.BookDiff, eventOut chan<- protocol.Event, logger *slog.Logger) error {
	tr, err := reader.NewTailReader(ctx, dir, logger)
	if err != nil {
		return fmt.Errorf("feed: book diffs: %w", err)
	}
	defer tr.Close()

	s := stream.New[schema.BookDiff](tr)
	for {
		rec, err := s.Next(ctx)
		if err != nil {
			var pe *stream.ParseError
			if ok := asParseError(err, &pe); ok {
				logger.Warn("skipping malformed book diff", "error", pe.Err)
				continue
			}
			return fmt.Errorf("feed: book diffs: %w", err)
		}
		select {
		case diffOut <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case eventOut <- events.FromBookDiff(rec):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunEventRecords tails dir, parses each line as T, converts it to one
// or more protocol.Event values via convert, and forwards them on out.
func RunEventRecords[T any](ctx context.Context, dir string, convert func(T) []protocol.Event, out chan<- protocol.Event, logger *slog.Logger) error {
	tr, err := reader.NewTailReader(ctx, dir, logger)
	if err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	defer tr.Close()

	s := stream.New[T](tr)
	for {
		rec, err := s.Next(ctx)
		if err != nil {
			var pe *stream.ParseError
			if ok := asParseError(err, &pe); ok {
				logger.Warn("skipping malformed record", "error", pe.Err)
				continue
			}
			return fmt.Errorf("feed: %w", err)
		}
		for _, ev := range convert(rec) {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func asParseError(err error, target **stream.ParseError) bool {
	pe, ok := err.(*stream.ParseError)
	if ok {
		*target = pe
	}
	return ok
}

// one-to-many adapters so every record kind fits RunEventRecords's
// convert signature uniformly.

func TradeConverter(t schema.Trade) []protocol.Event {
	return events.FromTrade(t)
}

func FillConverter(f schema.Fill) []protocol.Event {
	return []protocol.Event{events.FromFill(f)}
}

func OrderStatusConverter(s schema.OrderStatus) []protocol.Event {
	return []protocol.Event{events.FromOrderStatus(s)}
}

func TwapStatusConverter(s schema.TwapStatus) []protocol.Event {
	return []protocol.Event{events.FromTwapStatus(s)}
}

func SystemActionConverter(a schema.SystemAction) []protocol.Event {
	return []protocol.Event{events.FromSystemAction(a)}
}

func MiscEventConverter(m schema.MiscEvent) []protocol.Event {
	return []protocol.Event{events.FromMiscEvent(m)}
}
