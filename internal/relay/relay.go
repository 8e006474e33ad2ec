// Package relay copies generated text deltas onto a response as they arrive.
package relay

import (
	"context"
	"errors"
	"io"

	"rag-chat-platform/internal/ai"
)

// Pump pulls deltas from stream and hands each one to emit, in order, until
// the stream ends. It returns the number of deltas emitted.
//
// The stream is always closed on return. When ctx is cancelled the stream is
// closed immediately so a blocked Recv unwinds and the upstream request is
// released; Pump then reports ctx.Err().
func Pump(ctx context.Context, stream ai.Stream, emit func(string) error) (int, error) {
	defer stream.Close()
	stop := context.AfterFunc(ctx, func() { stream.Close() })
	defer stop()

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return n, ctxErr
			}
			return n, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return n, ctxErr
			}
			return n, err
		}
		if delta == "" {
			continue
		}
		if err := emit(delta); err != nil {
			return n, err
		}
		n++
	}
}
