package platform

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelstick-go/services/output/internal/core"
)

type fakeBus struct {
	mu  sync.Mutex
	out []byte
	txs int
}

func (b *fakeBus) Tx(w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = append(b.out, w...)
	b.txs++
	return nil
}

func (b *fakeBus) Transfer(x byte) (byte, error) { return 0, nil }

func (b *fakeBus) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.out...)
}

type symbols struct {
	list []core.Symbol
	pos  int
}

func (s *symbols) NextSymbol() (core.Symbol, bool) {
	if s.pos >= len(s.list) {
		return 0, false
	}
	v := s.list[s.pos]
	s.pos++
	return v, true
}

type endlessSymbols struct{}

func (endlessSymbols) NextSymbol() (core.Symbol, bool) { return core.SymbolOne, true }

func testTable() *core.SymbolTable {
	var t core.SymbolTable
	t[core.SymbolZero] = core.Pulse{Dur0: 2, Level0: true, Dur1: 6}
	t[core.SymbolOne] = core.Pulse{Dur0: 6, Level0: true, Dur1: 2}
	t[core.SymbolGap] = core.Pulse{Dur0: 4, Dur1: 4}
	t[core.SymbolStart] = core.Pulse{Dur0: 2, Dur1: 2}
	return &t
}

func TestSPIPulserEncodesBits(t *testing.T) {
	bus := &fakeBus{}
	p := NewSPIPulser(bus, 8_000_000)
	assert.Equal(t, uint32(125), p.TickNS())
	require.NoError(t, p.Begin(core.PulseConfig{}))

	src := &symbols{list: []core.Symbol{core.SymbolStart, core.SymbolOne, core.SymbolZero, core.SymbolStop}}
	require.True(t, p.Submit(testTable(), src))
	waitIdle(t, p.Busy)

	assert.Equal(t, []byte{0x0F, 0xCC, 0x00}, bus.bytes())
}

func TestSPIPulserChunks(t *testing.T) {
	bus := &fakeBus{}
	p := NewSPIPulser(bus, 8_000_000)
	list := make([]core.Symbol, spiChunk+10)
	for i := range list {
		list[i] = core.SymbolGap
	}
	require.True(t, p.Submit(testTable(), &symbols{list: list}))
	waitIdle(t, p.Busy)

	assert.Len(t, bus.bytes(), spiChunk+10)
	assert.Equal(t, 2, bus.txs)
}

func TestSPIPulserBusyAndAbort(t *testing.T) {
	bus := &fakeBus{}
	p := NewSPIPulser(bus, 8_000_000)
	require.True(t, p.Submit(testTable(), endlessSymbols{}))
	assert.False(t, p.Submit(testTable(), endlessSymbols{}))
	p.Abort()
	assert.False(t, p.Busy())
	assert.NoError(t, p.Close())
}

func TestSPIPulserIdlePadding(t *testing.T) {
	bus := &fakeBus{}
	p := NewSPIPulser(bus, 8_000_000)
	require.NoError(t, p.Begin(core.PulseConfig{IdleLevel: true}))
	require.True(t, p.Submit(testTable(), &symbols{list: []core.Symbol{core.SymbolStart}}))
	waitIdle(t, p.Busy)
	assert.Equal(t, []byte{0x0F}, bus.bytes())
}

func TestBitWriterLongRuns(t *testing.T) {
	var got []byte
	w := bitWriter{buf: make([]byte, 4), out: func(b []byte) { got = append(got, b...) }}
	w.put(true, 3)
	w.put(false, 21)
	w.put(true, 8)
	w.finish(false)
	assert.Equal(t, []byte{0xE0, 0x00, 0x00, 0xFF}, got)
}
