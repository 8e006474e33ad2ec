// Package aitest provides in-memory streams for tests of code that consumes
// generated text.
package aitest

import (
	"io"
	"sync"
)

// SliceStream serves a fixed list of deltas, optionally ending with an error
type SliceStream struct {
	mu     sync.Mutex
	deltas []string
	err    error
	closed bool
}

func NewSliceStream(deltas ...string) *SliceStream {
	return &SliceStream{deltas: deltas}
}

// FailAfter makes the stream return err once the deltas are exhausted
func (s *SliceStream) FailAfter(err error) *SliceStream {
	s.err = err
	return s
}

func (s *SliceStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", io.EOF
	}
	if len(s.deltas) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *SliceStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
