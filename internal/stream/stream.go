// Package stream adapts a line-oriented tailer into a typed record
// stream.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
)

// LineSource is the minimal interface TypedStream needs from a
// tailer: one more line of input, or an error if the tailer itself
// fails.
type LineSource interface {
	NextEvent(ctx context.Context) (string, error)
}

// ParseError wraps a single malformed record. It is recoverable: the
// caller should log it and continue, since the tailer's position has
// already advanced past the offending line.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse record: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TypedStream pulls one line at a time from a LineSource and parses it
// into T per its JSON schema. A parse failure on one line is returned
// as a *ParseError; the underlying tailer position is not rewound, so
// the next call reads the following line.
type TypedStream[T any] struct {
	src LineSource
}

// New wraps src as a stream of T.
func New[T any](src LineSource) *TypedStream[T] {
	return &TypedStream[T]{src: src}
}

// Next blocks for the next record. On parse failure it returns the
// zero value of T and a *ParseError; callers should log and continue
// rather than treat this as fatal.
func (s *TypedStream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	line, err := s.src.NextEvent(ctx)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal([]byte(line), &v); err != nil {
		return zero, &ParseError{Line: line, Err: err}
	}
	return v, nil
}
