package waveform

import "pixelstick-go/services/output/internal/core"

type phase uint8

const (
	phaseGap phase = iota
	phaseStart
	phaseData
	phaseStop
	phaseDone
)

// Source walks an intensity buffer bit by bit, MSB first, framed by gap,
// start and stop symbols. It implements core.SymbolSource.
type Source struct {
	buf   []byte
	order ColorOrder
	lut   *[256]byte

	ph   phase
	gaps int
	pos  int
	mask byte
	cur  byte
}

// NewSource returns an idle source with identity color order and full
// brightness.
func NewSource() *Source {
	s := &Source{order: OrderRGB, ph: phaseDone}
	s.lut = BrightnessLUT(100)
	return s
}

// SetColorOrder and SetBrightness must only be called between frames.
func (s *Source) SetColorOrder(o ColorOrder) { s.order = o }

func (s *Source) SetBrightness(pct uint8) { s.lut = BrightnessLUT(pct) }

// Reset rewinds the source to the first gap symbol of a frame over buf.
func (s *Source) Reset(buf []byte) {
	s.buf = buf
	s.ph = phaseGap
	s.gaps = 0
	s.pos = 0
	s.mask = 0
}

// Done reports whether the stop symbol has been produced.
func (s *Source) Done() bool { return s.ph == phaseDone }

// Pos is the index of the intensity currently being shifted out.
func (s *Source) Pos() int { return s.pos }

func (s *Source) load() {
	i := s.pos
	if base := i - i%3; base+3 <= len(s.buf) {
		i = base + int(s.order[i%3])
	}
	s.cur = s.lut[s.buf[i]]
	s.mask = 0x80
}

func (s *Source) NextSymbol() (core.Symbol, bool) {
	switch s.ph {
	case phaseGap:
		s.gaps++
		if s.gaps >= GapSymbols {
			s.ph = phaseStart
		}
		return core.SymbolGap, true

	case phaseStart:
		s.ph = phaseData
		if len(s.buf) == 0 {
			s.ph = phaseStop
		}
		return core.SymbolStart, true

	case phaseData:
		if s.mask == 0 {
			s.load()
		}
		sym := core.SymbolZero
		if s.cur&s.mask != 0 {
			sym = core.SymbolOne
		}
		s.mask >>= 1
		if s.mask == 0 {
			s.pos++
			if s.pos >= len(s.buf) {
				s.ph = phaseStop
			}
		}
		return sym, true

	case phaseStop:
		s.ph = phaseDone
		return core.SymbolStop, true
	}
	return 0, false
}
