package serialenc

// Generic is a framed serial stream: optional header, raw intensities,
// optional footer.
type Generic struct {
	frame
	header []byte
	footer []byte
	hdrPos int
	ftrPos int
}

func NewGeneric() *Generic { return &Generic{} }

// SetFraming installs header and footer. Only call while no frame is in
// flight; the slices are retained.
func (e *Generic) SetFraming(header, footer []byte) {
	e.header = header
	e.footer = footer
}

func (e *Generic) StartNewFrame(buf []byte) {
	e.reset(buf)
	e.hdrPos = 0
	e.ftrPos = 0
	switch {
	case len(e.header) > 0:
		e.state = Header
	case e.remaining > 0:
		e.state = Data
	default:
		e.afterData()
	}
}

func (e *Generic) afterData() {
	if len(e.footer) > 0 {
		e.state = Footer
	} else {
		e.state = Idle
	}
}

func (e *Generic) NextByte() (byte, bool) {
	switch e.state {
	case Header:
		b := e.header[e.hdrPos]
		e.hdrPos++
		if e.hdrPos >= len(e.header) {
			if e.remaining > 0 {
				e.state = Data
			} else {
				e.afterData()
			}
		}
		return b, true

	case Data:
		b := e.buf[e.pos]
		if e.advance() {
			e.afterData()
		}
		return b, true

	case Footer:
		b := e.footer[e.ftrPos]
		e.ftrPos++
		if e.ftrPos >= len(e.footer) {
			e.state = Idle
		}
		return b, true
	}
	return 0, false
}
