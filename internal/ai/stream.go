package ai

import "io"

// Stream is a lazy, forward-only sequence of generated text deltas.
// Recv returns io.EOF after the last delta. Close releases the upstream
// request and may be called at any time, more than once.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// primedStream replays a delta that was read ahead of time
type primedStream struct {
	Stream
	head    string
	hasHead bool
	eof     bool
}

func (p *primedStream) Recv() (string, error) {
	if p.hasHead {
		p.hasHead = false
		return p.head, nil
	}
	if p.eof {
		return "", io.EOF
	}
	return p.Stream.Recv()
}

// prime reads the first delta so that a provider refusing the call is reported
// as an error before anything is sent to the client.
func prime(s Stream) (Stream, error) {
	first, err := s.Recv()
	if err == io.EOF {
		s.Close()
		return &primedStream{Stream: s, eof: true}, nil
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return &primedStream{Stream: s, head: first, hasHead: true}, nil
}
