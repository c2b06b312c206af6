package serialenc

// Renard framing bytes. Values in [RenardMinEscaped, RenardMaxEscaped] are
// reserved on the wire and are sent as RenardEscape, v-RenardEscapeOffset.
const (
	RenardFrameStart   byte = 0x7E
	RenardDataStart    byte = 0x80
	RenardEscape       byte = 0x7F
	RenardMinEscaped   byte = 0x7D
	RenardMaxEscaped   byte = 0x7F
	RenardEscapeOffset byte = 0x4E
)

// Renard emits sync, command/address, then byte-stuffed intensities.
type Renard struct{ frame }

func NewRenard() *Renard { return &Renard{} }

func (e *Renard) StartNewFrame(buf []byte) {
	e.reset(buf)
	e.state = FrameStart
}

func (e *Renard) NextByte() (byte, bool) {
	switch e.state {
	case FrameStart:
		e.state = DataStart
		return RenardFrameStart, true

	case DataStart:
		e.state = Data
		if e.remaining <= 0 {
			e.state = Idle
		}
		return RenardDataStart, true

	case Data:
		b := e.buf[e.pos]
		if b >= RenardMinEscaped && b <= RenardMaxEscaped {
			// Cursor stays put; EscapedData sends the substitute.
			e.state = EscapedData
			return RenardEscape, true
		}
		if e.advance() {
			e.state = Idle
		}
		return b, true

	case EscapedData:
		b := e.buf[e.pos] - RenardEscapeOffset
		if e.advance() {
			e.state = Idle
		} else {
			e.state = Data
		}
		return b, true
	}
	return 0, false
}
