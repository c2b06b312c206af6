package waveform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelstick-go/services/output/internal/core"
)

func TestBuildTableRMTTick(t *testing.T) {
	tab := BuildTable(WS2811, 25, WS2811.Idle)

	assert.Equal(t, core.Pulse{Dur0: 10, Level0: true, Dur1: 40}, tab[core.SymbolZero])
	assert.Equal(t, core.Pulse{Dur0: 39, Level0: true, Dur1: 11}, tab[core.SymbolOne])
	assert.Equal(t, core.Pulse{Dur0: 1200, Dur1: 1200}, tab[core.SymbolGap])
	assert.Equal(t, core.Pulse{Dur0: 2, Dur1: 2}, tab[core.SymbolStart])
	assert.Equal(t, core.Pulse{}, tab[core.SymbolStop])
}

func TestBuildTableSPITick(t *testing.T) {
	tab := BuildTable(UCS1903, 125, 50_000)

	assert.Equal(t, uint16(2), tab[core.SymbolZero].Dur0)
	assert.Equal(t, uint16(8), tab[core.SymbolZero].Dur1)
	assert.Equal(t, uint16(7), tab[core.SymbolOne].Dur0)
	assert.Equal(t, uint16(3), tab[core.SymbolOne].Dur1)
	assert.Equal(t, uint16(40), tab[core.SymbolGap].Dur0)
}

func TestGapCoversInterframeGap(t *testing.T) {
	const tick, gap = 25, 1_000_000
	tab := BuildTable(WS2811, tick, gap)
	total := GapSymbols * tab[core.SymbolGap].Ticks() * tick
	assert.InDelta(t, gap, total, float64(10*tick))
}

func TestGapSaturates(t *testing.T) {
	tab := BuildTable(WS2811, 1, 10_000_000)
	assert.Equal(t, uint16(65535/10), tab[core.SymbolGap].Dur0)
}

func TestSetGapOnlyTouchesGap(t *testing.T) {
	tab := BuildTable(WS2811, 25, WS2811.Idle)
	before := tab
	SetGap(&tab, 25, 500_000)
	assert.NotEqual(t, before[core.SymbolGap], tab[core.SymbolGap])
	before[core.SymbolGap] = tab[core.SymbolGap]
	assert.Equal(t, before, tab)
}

func collect(t *testing.T, s core.SymbolSource) []core.Symbol {
	t.Helper()
	var out []core.Symbol
	for i := 0; i < 1<<16; i++ {
		sym, ok := s.NextSymbol()
		if !ok {
			return out
		}
		out = append(out, sym)
	}
	t.Fatal("source never finished")
	return nil
}

func TestSourceFrameShape(t *testing.T) {
	s := NewSource()
	s.Reset([]byte{0xA5})
	got := collect(t, s)

	require.Len(t, got, GapSymbols+1+8+1)
	for i := 0; i < GapSymbols; i++ {
		assert.Equal(t, core.SymbolGap, got[i])
	}
	assert.Equal(t, core.SymbolStart, got[GapSymbols])
	bits := got[GapSymbols+1 : GapSymbols+9]
	want := []core.Symbol{1, 0, 1, 0, 0, 1, 0, 1}
	assert.Equal(t, want, bits)
	assert.Equal(t, core.SymbolStop, got[len(got)-1])
	assert.True(t, s.Done())
}

func TestSourceEmptyBuffer(t *testing.T) {
	s := NewSource()
	s.Reset(nil)
	got := collect(t, s)
	require.Len(t, got, GapSymbols+2)
	assert.Equal(t, core.SymbolStop, got[len(got)-1])
}

func decode(syms []core.Symbol) []byte {
	var out []byte
	var cur byte
	n := 0
	for _, s := range syms {
		if s != core.SymbolZero && s != core.SymbolOne {
			continue
		}
		cur <<= 1
		if s == core.SymbolOne {
			cur |= 1
		}
		if n++; n == 8 {
			out = append(out, cur)
			cur, n = 0, 0
		}
	}
	return out
}

func TestSourceColorOrder(t *testing.T) {
	o, ok := ParseColorOrder("GRB")
	require.True(t, ok)

	s := NewSource()
	s.SetColorOrder(o)
	// Two full pixels and one trailing byte passed through unchanged.
	s.Reset([]byte{1, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, []byte{2, 1, 3, 5, 4, 6, 7}, decode(collect(t, s)))
}

func TestSourceBrightness(t *testing.T) {
	s := NewSource()
	s.SetBrightness(50)
	s.Reset([]byte{200, 255, 0})
	assert.Equal(t, []byte{100, 128, 0}, decode(collect(t, s)))
}

func TestParseColorOrder(t *testing.T) {
	cases := map[string]bool{
		"rgb": true, "bgr": true, "GBR": true,
		"rrg": false, "rg": false, "rgbw": false, "xyz": false, "": false,
	}
	for in, want := range cases {
		o, ok := ParseColorOrder(in)
		assert.Equal(t, want, ok, in)
		if !ok {
			assert.Equal(t, OrderRGB, o, in)
		}
	}
	o, _ := ParseColorOrder("BRG")
	assert.Equal(t, "brg", o.String())
}

func TestBrightnessLUTClamps(t *testing.T) {
	assert.Equal(t, byte(255), BrightnessLUT(250)[255])
	assert.Equal(t, byte(0), BrightnessLUT(0)[255])
}

func TestChipIdleUs(t *testing.T) {
	assert.Equal(t, uint32(300), WS2811.IdleUs())
	assert.Equal(t, uint32(24), UCS1903.IdleUs())
}
