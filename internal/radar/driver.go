// Package radar drives a Seeed MR24HPC1 presence radar: it decodes accepted
// frames into readings, builds outgoing commands from a fixed catalog and
// runs request/response exchanges against the sensor.
package radar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/mmwave/internal/monitoring"
	"github.com/banshee-data/mmwave/internal/protocol"
	"github.com/banshee-data/mmwave/internal/timeutil"
)

// Stream is the byte transport the driver reads from and writes to.
// Buffered must not block; it reports how many bytes ReadByte can return
// without waiting.
type Stream interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Flush() error
}

const (
	DefaultPollInterval = 20 * time.Millisecond
	DefaultTimeout      = time.Second

	// maxDrain bounds how many bytes one Process call consumes.
	maxDrain = 4096
)

// Option configures a Driver.
type Option func(*Driver)

// WithPollInterval sets the delay between Process calls while awaiting a
// response.
func WithPollInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.poll = d
		}
	}
}

// WithTimeout sets how long an exchange waits for its response. Zero waits
// until the context is done.
func WithTimeout(d time.Duration) Option {
	return func(dr *Driver) {
		if d >= 0 {
			dr.timeout = d
		}
	}
}

// WithVerbose enables per-frame trace logging.
func WithVerbose(v bool) Option {
	return func(dr *Driver) { dr.verbose.Store(v) }
}

// WithLogf sets the trace logger. Defaults to monitoring.Logf.
func WithLogf(logf func(format string, v ...interface{})) Option {
	return func(dr *Driver) {
		if logf != nil {
			dr.logf = logf
		}
	}
}

// WithClock replaces the wall clock used for timestamps, poll sleeps and
// deadlines.
func WithClock(c timeutil.Clock) Option {
	return func(dr *Driver) {
		if c != nil {
			dr.clock = c
		}
	}
}

// WithMetrics records link counters into m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(dr *Driver) {
		if m != nil {
			dr.metrics = m
		}
	}
}

// WithMaxFrameSize limits the receiver's capture buffer.
func WithMaxFrameSize(n int) Option {
	return func(dr *Driver) { dr.maxFrame = n }
}

// WithCustomMode selects the custom mode slot (1 to 4) used for parameter
// sessions. Defaults to 1.
func WithCustomMode(n uint8) Option {
	return func(dr *Driver) {
		if n >= 1 && n <= 4 {
			dr.customMode = n
		}
	}
}

type seenFrame struct {
	seq   uint64
	frame protocol.Frame
}

// Driver owns one sensor link. All reads from the stream and all state
// mutations happen under its I/O mutex, so there is a single writer at any
// time; readers use Snapshot or the getters.
type Driver struct {
	stream Stream
	state  *State
	mode   ModeController
	disp   *Dispatcher
	recv   *protocol.Receiver

	poll       time.Duration
	timeout    time.Duration
	clock      timeutil.Clock
	logf       func(format string, v ...interface{})
	verbose    atomic.Bool
	metrics    *monitoring.Metrics
	maxFrame   int
	customMode uint8

	io   sync.Mutex
	seq  uint64
	seen map[protocol.Key]seenFrame
	buf  []byte
}

// NewDriver returns a driver reading from and writing to s.
func NewDriver(s Stream, opts ...Option) *Driver {
	d := &Driver{
		stream:     s,
		state:      NewState(),
		poll:       DefaultPollInterval,
		timeout:    DefaultTimeout,
		clock:      timeutil.RealClock{},
		logf:       monitoring.Logf,
		maxFrame:   protocol.MaxFrameSize,
		customMode: 1,
		seen:       make(map[protocol.Key]seenFrame),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = monitoring.NewMetrics(nil)
	}
	d.mode = ModeController{state: d.state}
	d.disp = &Dispatcher{verbose: d.verbose.Load, logf: d.logf}
	d.recv = protocol.NewReceiver(
		protocol.WithMaxFrameSize(d.maxFrame),
		protocol.WithRejectHook(d.onReject),
	)
	return d
}

func (d *Driver) onReject(reason protocol.RejectReason) {
	d.metrics.FramesRejected.WithLabelValues(string(reason)).Inc()
	if d.verbose.Load() {
		d.logf("radar: dropped frame: %s", reason)
	}
}

// SetVerbose toggles per-frame trace logging.
func (d *Driver) SetVerbose(v bool) { d.verbose.Store(v) }

// Verbose reports whether trace logging is on.
func (d *Driver) Verbose() bool { return d.verbose.Load() }

// Snapshot returns a copy of every reading.
func (d *Driver) Snapshot() Snapshot { return d.state.Snapshot() }

// Mode returns the current operating mode.
func (d *Driver) Mode() Mode { return d.mode.Mode() }

// Process drains the bytes the stream has buffered, decodes every complete
// frame among them and returns the accepted frames in arrival order. A
// stream with nothing buffered is not an error.
func (d *Driver) Process() ([]protocol.Frame, error) {
	d.io.Lock()
	defer d.io.Unlock()
	return d.processLocked()
}

func (d *Driver) processLocked() ([]protocol.Frame, error) {
	n := d.stream.Buffered()
	if n <= 0 {
		return nil, nil
	}
	if n > maxDrain {
		n = maxDrain
	}
	d.buf = d.buf[:0]
	var readErr error
	for i := 0; i < n; i++ {
		b, err := d.stream.ReadByte()
		if err != nil {
			readErr = fmt.Errorf("radar: read: %w", err)
			break
		}
		d.buf = append(d.buf, b)
	}
	d.metrics.BytesRead.Add(float64(len(d.buf)))

	frames := d.recv.Feed(d.buf)
	now := d.clock.Now()
	for _, f := range frames {
		d.metrics.FramesAccepted.Inc()
		handled := d.disp.Dispatch(d.state, f, now)
		d.metrics.FramesDispatched.WithLabelValues(f.Key().String(), fmt.Sprint(handled)).Inc()
		d.seq++
		d.seen[f.Key()] = seenFrame{seq: d.seq, frame: f}
	}
	return frames, readErr
}

// Run calls Process every poll interval until ctx is done. onFrames, if
// non-nil, is called after each batch that accepted at least one frame.
func (d *Driver) Run(ctx context.Context, onFrames func([]protocol.Frame)) error {
	ticker := d.clock.NewTicker(d.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			frames, err := d.Process()
			if err != nil {
				d.logf("radar: %v", err)
			}
			if len(frames) > 0 && onFrames != nil {
				onFrames(frames)
			}
		}
	}
}

// Send writes one command frame.
func (d *Driver) Send(cmd Command) error {
	d.io.Lock()
	defer d.io.Unlock()
	return d.sendLocked(cmd)
}

// SendAll writes cmds back to back without letting another exchange
// interleave.
func (d *Driver) SendAll(cmds ...Command) error {
	d.io.Lock()
	defer d.io.Unlock()
	for _, c := range cmds {
		if err := d.sendLocked(c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) sendLocked(cmd Command) error {
	b, err := cmd.Bytes()
	if err != nil {
		return err
	}
	if _, err := d.stream.Write(b); err != nil {
		return fmt.Errorf("radar: write %s: %w", cmd.Op, err)
	}
	if err := d.stream.Flush(); err != nil {
		return fmt.Errorf("radar: flush %s: %w", cmd.Op, err)
	}
	d.metrics.CommandsSent.WithLabelValues(string(cmd.Op)).Inc()
	if d.verbose.Load() {
		d.logf("radar: sent %s", cmd)
	}
	return nil
}

// Await polls until a frame with key k arrives after the call started, then
// returns it. Frames with other pairs do not satisfy it. It gives up with
// ErrTimeout after the driver's timeout, or with ctx.Err() when ctx is done
// first.
//
// This is a change from the sensor's reference polling loop, which waits
// indefinitely for any new frame. Callers that relied on blocking forever
// should use WithTimeout(0) and cancel through ctx.
func (d *Driver) Await(ctx context.Context, k protocol.Key) (protocol.Frame, error) {
	d.io.Lock()
	defer d.io.Unlock()
	return d.awaitLocked(ctx, k, d.seq)
}

func (d *Driver) awaitLocked(ctx context.Context, k protocol.Key, after uint64) (protocol.Frame, error) {
	var deadline time.Time
	if d.timeout > 0 {
		deadline = d.clock.Now().Add(d.timeout)
	}
	for {
		if _, err := d.processLocked(); err != nil {
			return protocol.Frame{}, err
		}
		if s, ok := d.seen[k]; ok && s.seq > after {
			return s.frame, nil
		}
		if err := ctx.Err(); err != nil {
			return protocol.Frame{}, err
		}
		if !deadline.IsZero() && !d.clock.Now().Before(deadline) {
			return protocol.Frame{}, fmt.Errorf("%w: %s", ErrTimeout, k)
		}
		d.clock.Sleep(d.poll)
	}
}

// Exchange writes cmd and waits for the frame answering it. A query is
// answered by a frame with the same pair.
func (d *Driver) Exchange(ctx context.Context, cmd Command) (protocol.Frame, error) {
	d.io.Lock()
	defer d.io.Unlock()
	after := d.seq
	err := d.sendLocked(cmd)
	var f protocol.Frame
	if err == nil {
		f, err = d.awaitLocked(ctx, cmd.Key(), after)
	}
	d.metrics.AskResults.WithLabelValues(string(cmd.Op), askResult(err)).Inc()
	return f, err
}

func askResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
