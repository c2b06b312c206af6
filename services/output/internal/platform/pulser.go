package platform

import (
	"io"
	"sync/atomic"

	"tinygo.org/x/drivers"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/x/timex"
)

const spiChunk = 512

// SPIPulser is a core.PulseSequencer that renders each pulse as a run of
// SPI bits, one bit per tick, MSB first, on the bus data-out line. The
// peripheral tick is the SPI clock period.
type SPIPulser struct {
	bus    drivers.SPI
	tickNS uint32
	idle   bool
	chunk  []byte

	busy  atomic.Bool
	abort atomic.Bool
	done  chan struct{}

	txErrs atomic.Uint32
}

var _ core.PulseSequencer = (*SPIPulser)(nil)

// NewSPIPulser expects bus to be already clocked at hz.
func NewSPIPulser(bus drivers.SPI, hz uint32) *SPIPulser {
	return &SPIPulser{
		bus:    bus,
		tickNS: timex.PeriodNS(uint64(hz)),
		chunk:  make([]byte, spiChunk),
	}
}

// Begin records the idle level. The data pin is fixed by the bus wiring.
func (p *SPIPulser) Begin(cfg core.PulseConfig) error {
	if p.bus == nil {
		return errcode.PortMissing
	}
	if p.busy.Load() {
		return errcode.Busy
	}
	p.idle = cfg.IdleLevel
	return nil
}

func (p *SPIPulser) TickNS() uint32 { return p.tickNS }

func (p *SPIPulser) Submit(table *core.SymbolTable, src core.SymbolSource) bool {
	if p.bus == nil || !p.busy.CompareAndSwap(false, true) {
		return false
	}
	p.abort.Store(false)
	done := make(chan struct{})
	p.done = done
	go p.run(table, src, done)
	return true
}

func (p *SPIPulser) run(table *core.SymbolTable, src core.SymbolSource, done chan struct{}) {
	defer func() {
		p.busy.Store(false)
		close(done)
	}()
	w := bitWriter{buf: p.chunk, out: p.tx}
	for !p.abort.Load() {
		sym, ok := src.NextSymbol()
		if !ok {
			w.finish(p.idle)
			return
		}
		if sym >= core.NumSymbols {
			continue
		}
		pl := table[sym]
		w.put(pl.Level0, pl.Dur0)
		w.put(pl.Level1, pl.Dur1)
	}
}

func (p *SPIPulser) tx(b []byte) {
	if err := p.bus.Tx(b, nil); err != nil {
		p.txErrs.Add(1)
	}
}

func (p *SPIPulser) Busy() bool { return p.busy.Load() }

// Abort stops the frame between chunks and returns once the symbol source
// and table are no longer read.
func (p *SPIPulser) Abort() {
	if !p.busy.Load() {
		return
	}
	p.abort.Store(true)
	<-p.done
}

// TxErrors counts failed bus transfers.
func (p *SPIPulser) TxErrors() uint32 { return p.txErrs.Load() }

// Close aborts any frame and releases the bus if it can be closed.
func (p *SPIPulser) Close() error {
	p.Abort()
	if c, ok := p.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// bitWriter packs levels MSB first and hands out full chunks.
type bitWriter struct {
	buf   []byte
	n     int
	acc   byte
	nbits uint8
	out   func([]byte)
}

func (w *bitWriter) emit(b byte) {
	w.buf[w.n] = b
	w.n++
	if w.n == len(w.buf) {
		w.out(w.buf)
		w.n = 0
	}
}

func (w *bitWriter) put(level bool, count uint16) {
	var fill byte
	if level {
		fill = 0xFF
	}
	for count > 0 {
		if w.nbits == 0 && count >= 8 {
			w.emit(fill)
			count -= 8
			continue
		}
		w.acc <<= 1
		if level {
			w.acc |= 1
		}
		w.nbits++
		count--
		if w.nbits == 8 {
			w.emit(w.acc)
			w.acc, w.nbits = 0, 0
		}
	}
}

// finish pads the last byte with the idle level and flushes.
func (w *bitWriter) finish(idle bool) {
	if w.nbits > 0 {
		w.put(idle, uint16(8-w.nbits))
	}
	if w.n > 0 {
		w.out(w.buf[:w.n])
		w.n = 0
	}
}
