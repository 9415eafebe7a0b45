package serialmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/banshee-data/mmwave/internal/monitoring"
)

var (
	ErrWriteFailed = errors.New("failed to write to serial port")
	ErrClosed      = errors.New("serial stream closed")
)

// maxBuffered caps unread input. When the driver falls this far behind the
// oldest bytes are discarded; the receiver resynchronises on the next frame.
const maxBuffered = 64 * 1024

// PortStream implements the radar driver's Stream on top of a SerialPorter.
type PortStream struct {
	port SerialPorter

	mu      sync.Mutex
	in      []byte
	readErr error
	dropped int

	writeMu sync.Mutex
	pending bytes.Buffer

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// NewPortStream starts draining port in the background.
func NewPortStream(port SerialPorter) *PortStream {
	s := &PortStream{
		port:   port,
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *PortStream) readLoop() {
	defer close(s.done)
	buf := make([]byte, 256)
	for {
		n, err := s.port.Read(buf)
		if n > 0 {
			s.append(buf[:n])
		}
		select {
		case <-s.closed:
			return
		default:
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				monitoring.Logf("serialmux: read failed: %v", err)
			}
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}
	}
}

func (s *PortStream) append(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.in = append(s.in, p...)
	if over := len(s.in) - maxBuffered; over > 0 {
		s.in = s.in[over:]
		s.dropped += over
	}
}

// Buffered returns the number of bytes ReadByte can return without waiting.
func (s *PortStream) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.in)
}

// ReadByte returns the next buffered byte. With nothing buffered it returns
// the reader's terminal error, ErrClosed after Close, or io.EOF.
func (s *PortStream) ReadByte() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.in) == 0 {
		select {
		case <-s.closed:
			return 0, ErrClosed
		default:
		}
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, io.EOF
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, nil
}

// Dropped reports how many input bytes were discarded because the buffer
// was full.
func (s *PortStream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Write queues p until the next Flush.
func (s *PortStream) Write(p []byte) (int, error) {
	select {
	case <-s.closed:
		return 0, ErrClosed
	default:
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.pending.Write(p)
}

// Flush writes every queued byte to the port.
func (s *PortStream) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.pending.Len() == 0 {
		return nil
	}
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	want := s.pending.Len()
	n, err := s.port.Write(s.pending.Bytes())
	s.pending.Reset()
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteFailed, n, want)
	}
	return nil
}

// Close closes the port and waits for the background reader to exit.
func (s *PortStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.port.Close()
		<-s.done
	})
	return err
}
