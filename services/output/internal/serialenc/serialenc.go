// Package serialenc holds the byte generators of the UART lighting
// protocols. Each encoder is a small state machine advanced exactly once per
// byte pulled by the transmit peripheral. NextByte runs in the transmit-ready
// context: it only moves cursors and indexes tables.
package serialenc

// State is the position of the frame state machine.
type State uint8

const (
	Idle State = iota
	FrameStart
	DataStart
	Data
	EscapedData
	Header
	Footer
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FrameStart:
		return "frame_start"
	case DataStart:
		return "data_start"
	case Data:
		return "data"
	case EscapedData:
		return "escaped_data"
	case Header:
		return "header"
	case Footer:
		return "footer"
	}
	return "invalid"
}

// Encoder produces one protocol frame from an intensity buffer.
type Encoder interface {
	// StartNewFrame rewinds to the first byte of buf. The caller guarantees
	// no NextByte call is in progress.
	StartNewFrame(buf []byte)
	// NextByte returns the next wire byte; ok=false once the frame is done.
	NextByte() (b byte, ok bool)
	State() State
	// Cursor is the index of the next intensity to be sent.
	Cursor() int
	Busy() bool
}

// frame is the cursor state shared by all encoders.
type frame struct {
	buf       []byte
	pos       int
	remaining int
	state     State
}

func (f *frame) reset(buf []byte) {
	f.buf = buf
	f.pos = 0
	f.remaining = len(buf)
}

func (f *frame) State() State { return f.state }
func (f *frame) Cursor() int  { return f.pos }

// advance moves past the current intensity and reports whether it was the
// last one.
func (f *frame) advance() bool {
	f.pos++
	f.remaining--
	return f.remaining <= 0
}

// Busy reports whether a frame is still being produced.
func (f *frame) Busy() bool { return f.state != Idle }
