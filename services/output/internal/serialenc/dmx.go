package serialenc

// DMXStartCode is the null start code of a dimmer-data packet.
const DMXStartCode byte = 0x00

// DMX emits the start code followed by every intensity in order. Break and
// mark-after-break are produced by the line, not by this encoder.
type DMX struct{ frame }

func NewDMX() *DMX { return &DMX{} }

func (e *DMX) StartNewFrame(buf []byte) {
	e.reset(buf)
	e.state = FrameStart
}

func (e *DMX) NextByte() (byte, bool) {
	switch e.state {
	case FrameStart:
		e.state = Data
		if e.remaining <= 0 {
			e.state = Idle
		}
		return DMXStartCode, true

	case Data:
		b := e.buf[e.pos]
		if e.advance() {
			e.state = Idle
		}
		return b, true
	}
	return 0, false
}
