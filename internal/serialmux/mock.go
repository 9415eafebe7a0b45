package serialmux

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/banshee-data/mmwave/internal/protocol"
)

var errPortClosed = errors.New("serial port closed")

// TestableSerialPort is an in-memory SerialPorter with scripted reads,
// captured writes and injectable errors.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite makes Write accept one byte less than asked
	ShortWrite bool

	// CloseError is returned by Close if set
	CloseError error

	Closed      bool
	WriteCalls  int
	ReadTimeout time.Duration

	// BlockReads causes Read to block until data is added or Close is called
	BlockReads bool

	readCond *sync.Cond
}

// NewTestableSerialPort creates a port with blocking reads, which is how a
// real port with no traffic behaves.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
		BlockReads:  true,
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

func (t *TestableSerialPort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	for t.BlockReads && !t.Closed && t.ReadBuffer.Len() == 0 && t.ReadError == nil {
		t.readCond.Wait()
	}
	if t.Closed {
		return 0, errPortClosed
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}
	return t.ReadBuffer.Read(p)
}

func (t *TestableSerialPort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++
	if t.Closed {
		return 0, errPortClosed
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	if t.ShortWrite && len(p) > 0 {
		p = p[:len(p)-1]
	}
	return t.WriteBuffer.Write(p)
}

// Close marks the port closed and wakes blocked readers.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	t.readCond.Broadcast()
	return t.CloseError
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadTimeout = timeout
	return nil
}

// AddReadData queues data for subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadBuffer.Write(data)
	t.readCond.Broadcast()
}

// FailRead makes the next Read return err, waking a blocked reader.
func (t *TestableSerialPort) FailRead(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadError = err
	t.readCond.Broadcast()
}

// GetWrittenData returns a copy of everything written to the port.
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}

// MockSerialPortFactory implements SerialPortFactory for testing.
type MockSerialPortFactory struct {
	mu sync.Mutex

	// Port is the port to return from Open
	Port SerialPorter

	// Error is returned by Open if set
	Error error

	// OpenCalls records all Open calls
	OpenCalls []MockOpenCall
}

// MockOpenCall records details of an Open call.
type MockOpenCall struct {
	Path    string
	Options PortOptions
}

// NewMockSerialPortFactory creates a new MockSerialPortFactory.
func NewMockSerialPortFactory(port SerialPorter) *MockSerialPortFactory {
	return &MockSerialPortFactory{Port: port}
}

// Open returns the configured port or error.
func (f *MockSerialPortFactory) Open(path string, opts PortOptions) (SerialPorter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.OpenCalls = append(f.OpenCalls, MockOpenCall{Path: path, Options: opts})
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Port, nil
}

// LastCall returns the most recent Open call, or nil if none.
func (f *MockSerialPortFactory) LastCall() *MockOpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.OpenCalls) == 0 {
		return nil
	}
	return &f.OpenCalls[len(f.OpenCalls)-1]
}

// SimulatedSensor is a SerialPorter that behaves like an idle-room sensor:
// it emits a heartbeat and presence report every interval and answers
// queries that have a canned response. It backs the daemon's dev mode.
type SimulatedSensor struct {
	*TestableSerialPort

	mu      sync.Mutex
	answers map[protocol.Key][]byte
	stop    chan struct{}
	once    sync.Once
}

// NewSimulatedSensor starts a simulated sensor emitting reports every
// interval.
func NewSimulatedSensor(interval time.Duration) *SimulatedSensor {
	s := &SimulatedSensor{
		TestableSerialPort: NewTestableSerialPort(),
		answers: map[protocol.Key][]byte{
			{Control: 0x01, Command: 0x01}: {protocol.QueryPayload},
			{Control: 0x02, Command: 0xA1}: []byte("MR24HPB1"),
			{Control: 0x02, Command: 0xA2}: []byte("0000001"),
			{Control: 0x02, Command: 0xA3}: []byte("G60SM1SY"),
			{Control: 0x02, Command: 0xA4}: []byte("V010309"),
			{Control: 0x05, Command: 0x81}: {0x01},
			{Control: 0x08, Command: 0x80}: {0x00},
			{Control: 0x80, Command: 0x81}: {0x00},
			{Control: 0x80, Command: 0x82}: {0x00},
		},
		stop: make(chan struct{}),
	}
	go s.emit(interval)
	return s
}

func (s *SimulatedSensor) emit(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.AddReadData(protocol.MustBuild(0x01, 0x01, protocol.QueryPayload))
			s.AddReadData(protocol.MustBuild(0x80, 0x01, 0x00))
		}
	}
}

// Write records p and queues the canned answer for the query it carries.
// The output switch echo also flips what later status queries report.
func (s *SimulatedSensor) Write(p []byte) (int, error) {
	n, err := s.TestableSerialPort.Write(p)
	if err != nil || len(p) <= protocol.IndexPayload {
		return n, err
	}
	k := protocol.Key{Control: p[protocol.IndexControl], Command: p[protocol.IndexCommand]}

	s.mu.Lock()
	if k == (protocol.Key{Control: 0x08, Command: 0x00}) {
		s.answers[protocol.Key{Control: 0x08, Command: 0x80}] = []byte{p[protocol.IndexPayload]}
		s.answers[k] = []byte{p[protocol.IndexPayload]}
	}
	payload, ok := s.answers[k]
	s.mu.Unlock()

	if ok {
		s.AddReadData(protocol.MustBuild(k.Control, k.Command, payload...))
	}
	return n, nil
}

// Close stops the report generator and closes the port.
func (s *SimulatedSensor) Close() error {
	s.once.Do(func() { close(s.stop) })
	return s.TestableSerialPort.Close()
}
