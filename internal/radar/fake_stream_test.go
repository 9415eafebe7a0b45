package radar

import (
	"io"
	"sync"

	"github.com/banshee-data/mmwave/internal/protocol"
)

// fakeStream is an in-memory Stream. Writes are recorded and, when answers
// holds a payload for the written command's pair, the matching response
// frame is queued for reading.
type fakeStream struct {
	mu       sync.Mutex
	in       []byte
	written  [][]byte
	answers  map[protocol.Key][]byte
	writeErr error
	flushErr error
	flushes  int
}

func newFakeStream() *fakeStream {
	return &fakeStream{answers: make(map[protocol.Key][]byte)}
}

func (s *fakeStream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.in)
}

func (s *fakeStream) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.in) == 0 {
		return 0, io.EOF
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, nil
}

func (s *fakeStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, append([]byte(nil), p...))
	if len(p) > protocol.IndexCommand {
		k := protocol.Key{Control: p[protocol.IndexControl], Command: p[protocol.IndexCommand]}
		if payload, ok := s.answers[k]; ok {
			s.in = append(s.in, protocol.MustBuild(k.Control, k.Command, payload...)...)
		}
	}
	return len(p), nil
}

func (s *fakeStream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return s.flushErr
}

func (s *fakeStream) feed(b ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.in = append(s.in, b...)
}

func (s *fakeStream) answer(control, command byte, payload ...byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[protocol.Key{Control: control, Command: command}] = payload
}

func (s *fakeStream) writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.written))
	copy(out, s.written)
	return out
}
