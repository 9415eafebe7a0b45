package protocol

// RejectReason labels why a captured candidate was dropped.
type RejectReason string

const (
	RejectChecksum   RejectReason = "checksum"
	RejectLengthHigh RejectReason = "length_high"
	RejectOversize   RejectReason = "oversize"
	RejectOverflow   RejectReason = "overflow"
	RejectShort      RejectReason = "short"
	RejectIncomplete RejectReason = "incomplete"
)

type receiveState int

const (
	stateHunting   receiveState = iota // waiting for Sync1
	stateSynced                        // Sync1 seen, waiting for Sync2
	stateCapturing                     // copying until Terminator
)

// Receiver scans raw bytes for frames. It keeps no capture state between
// calls to Feed: a frame split across two batches is abandoned.
//
// Capture ends at the first Terminator byte, wherever it appears. A payload
// or length byte equal to 0x43 therefore truncates the frame and it fails
// validation; the sensor's own firmware has the same limitation.
type Receiver struct {
	maxFrame int
	onReject func(RejectReason)
}

// ReceiverOption configures a Receiver.
type ReceiverOption func(*Receiver)

// WithRejectHook registers fn to be called for every dropped candidate.
func WithRejectHook(fn func(RejectReason)) ReceiverOption {
	return func(r *Receiver) {
		r.onReject = fn
	}
}

// WithMaxFrameSize lowers the capture limit. Values outside
// [Overhead, MaxFrameSize] are ignored.
func WithMaxFrameSize(n int) ReceiverOption {
	return func(r *Receiver) {
		if n >= Overhead && n <= MaxFrameSize {
			r.maxFrame = n
		}
	}
}

// NewReceiver creates a Receiver.
func NewReceiver(opts ...ReceiverOption) *Receiver {
	r := &Receiver{maxFrame: MaxFrameSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed scans p and returns every accepted frame in arrival order. Rejected
// candidates are reported to the reject hook and otherwise ignored.
func (r *Receiver) Feed(p []byte) []Frame {
	var frames []Frame

	// sync bytes and the terminator are added back on completion
	limit := r.maxFrame - 3
	scratch := make([]byte, 0, limit)
	state := stateHunting

	for _, b := range p {
		switch state {
		case stateHunting:
			if b == Sync1 {
				state = stateSynced
			}
		case stateSynced:
			switch b {
			case Sync2:
				scratch = scratch[:0]
				state = stateCapturing
			case Sync1:
				// a repeated Sync1 may still be the real start
			default:
				state = stateHunting
			}
		case stateCapturing:
			if b == Terminator {
				if f, ok := r.complete(scratch); ok {
					frames = append(frames, f)
				}
				state = stateHunting
				continue
			}
			if len(scratch) == limit {
				r.reject(RejectOverflow)
				state = stateHunting
				if b == Sync1 {
					state = stateSynced
				}
				continue
			}
			scratch = append(scratch, b)
		}
	}

	if state == stateCapturing {
		r.reject(RejectIncomplete)
	}
	return frames
}

func (r *Receiver) complete(captured []byte) (Frame, bool) {
	candidate := make([]byte, 0, len(captured)+3)
	candidate = append(candidate, Sync1, Sync2)
	candidate = append(candidate, captured...)
	candidate = append(candidate, Terminator)

	if reason, ok := classify(candidate, r.maxFrame); !ok {
		r.reject(reason)
		return Frame{}, false
	}
	return parseFrame(candidate), true
}

func (r *Receiver) reject(reason RejectReason) {
	if r.onReject != nil {
		r.onReject(reason)
	}
}

// classify applies Validate and names the first failed check.
func classify(candidate []byte, maxFrame int) (RejectReason, bool) {
	switch {
	case len(candidate) < IndexPayload+1:
		return RejectShort, false
	case candidate[IndexLengthHigh] != 0:
		return RejectLengthHigh, false
	case FrameSize(int(candidate[IndexLengthLow])) > maxFrame:
		return RejectOversize, false
	case IndexPayload+int(candidate[IndexLengthLow]) >= len(candidate):
		return RejectShort, false
	case !Validate(candidate):
		return RejectChecksum, false
	}
	return "", true
}
