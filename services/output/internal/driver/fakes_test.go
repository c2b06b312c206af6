package driver

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/types"
)

type fakeTx struct {
	formats []core.SerialFormat
	src     core.ByteSource
	busy    bool
	aborts  int
	refuse  bool
	failErr error
	wire    []byte
}

func (f *fakeTx) Begin(sf core.SerialFormat) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.formats = append(f.formats, sf)
	return nil
}

func (f *fakeTx) Start(src core.ByteSource) bool {
	if f.busy || f.refuse {
		return false
	}
	f.src, f.busy = src, true
	return true
}

func (f *fakeTx) Busy() bool   { return f.busy }
func (f *fakeTx) Close() error { return nil }

func (f *fakeTx) Abort() {
	f.aborts++
	f.busy = false
	f.src = nil
}

// pump drains the armed source the way the pull context would.
func (f *fakeTx) pump() []byte {
	var out []byte
	for f.src != nil {
		b, ok := f.src.NextByte()
		if !ok {
			break
		}
		out = append(out, b)
	}
	f.wire = append(f.wire, out...)
	f.src, f.busy = nil, false
	return out
}

// pumpN pulls n bytes and leaves the frame in flight.
func (f *fakeTx) pumpN(n int) {
	for i := 0; i < n; i++ {
		f.src.NextByte()
	}
}

type fakeSeq struct {
	tick     uint32
	cfgs     []core.PulseConfig
	busy     bool
	submits  int
	aborts   int
	lastTab  *core.SymbolTable
	lastSrc  core.SymbolSource
	beginErr error
}

func (f *fakeSeq) Begin(c core.PulseConfig) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.cfgs = append(f.cfgs, c)
	return nil
}
func (f *fakeSeq) TickNS() uint32 { return f.tick }
func (f *fakeSeq) Submit(t *core.SymbolTable, s core.SymbolSource) bool {
	if f.busy {
		return false
	}
	f.submits++
	f.lastTab, f.lastSrc, f.busy = t, s, true
	return true
}
func (f *fakeSeq) Busy() bool   { return f.busy }
func (f *fakeSeq) Close() error { return nil }

func (f *fakeSeq) Abort() {
	f.aborts++
	f.busy = false
}

type clock struct{ t time.Time }

func newClock() *clock                   { return &clock{t: time.Unix(1_700_000_000, 0)} }
func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func serialInput(t types.OutputType, tx *fakeTx, c *clock) Input {
	return Input{
		ID:    0,
		Type:  t,
		Ports: core.ChannelPorts{UART: tx},
		Log:   zerolog.Nop(),
		Now:   c.Now,
	}
}

func pixelInput(t types.OutputType, seq *fakeSeq, c *clock) Input {
	return Input{
		ID:    1,
		Type:  t,
		Ports: core.ChannelPorts{Pulse: seq},
		Log:   zerolog.Nop(),
		Now:   c.Now,
	}
}

var errBoom = errors.New("boom")
