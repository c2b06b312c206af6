package driver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/services/output/internal/waveform"
	"pixelstick-go/types"
)

func newPixel(t *testing.T, typ types.OutputType) (*Pixel, *fakeSeq, *clock) {
	t.Helper()
	seq, c := &fakeSeq{tick: 25}, newClock()
	p := NewPixel(pixelInput(typ, seq, c))
	require.NoError(t, p.Begin())
	return p, seq, c
}

func pixelCfg(t *testing.T, d Driver) types.PixelConfig {
	t.Helper()
	var cfg types.PixelConfig
	require.NoError(t, json.Unmarshal(d.GetConfig(), &cfg))
	return cfg
}

func TestPixelDefaults(t *testing.T) {
	p, seq, _ := newPixel(t, types.OutputWS2811)
	cfg := pixelCfg(t, p)
	assert.Equal(t, PixelDefaultChannels, cfg.NumChannels)
	assert.Equal(t, uint32(300), cfg.InterFrameGapUs)
	assert.Equal(t, "rgb", cfg.ColorOrder)
	assert.Equal(t, uint8(100), cfg.Brightness)
	assert.Len(t, p.Buffer(), PixelDefaultChannels)
	assert.Equal(t, waveform.BuildTable(waveform.WS2811, 25, 300_000), p.table)
	require.Len(t, seq.cfgs, 1)
}

func TestPixelBusyAndNotDue(t *testing.T) {
	p, seq, _ := newPixel(t, types.OutputUCS1903)
	require.True(t, p.Render())
	require.Equal(t, 1, seq.submits)

	// Sequencer still busy and the frame period has not elapsed.
	assert.False(t, p.Render())
	assert.Equal(t, 1, seq.submits)
	assert.Equal(t, uint32(1), p.GetStatus().FrameStarts)
}

func TestPixelRenderCycle(t *testing.T) {
	p, seq, c := newPixel(t, types.OutputWS2811)
	require.True(t, p.Render())
	assert.Same(t, &p.table, seq.lastTab)

	c.Advance(time.Second)
	assert.False(t, p.Render(), "busy")

	seq.busy = false
	assert.True(t, p.Render())
	st := p.GetStatus()
	assert.Equal(t, uint32(2), st.FrameStarts)
	assert.Equal(t, uint32(1), st.FrameEnds)
}

func TestPixelSourceCarriesBuffer(t *testing.T) {
	p, seq, _ := newPixel(t, types.OutputWS2811)
	require.True(t, p.SetConfig(json.RawMessage(`{"num_chan":3,"color_order":"grb"}`)))
	copy(p.Buffer(), []byte{0xFF, 0x00, 0x0F})
	require.True(t, p.Render())

	var bits []core.Symbol
	for {
		s, ok := seq.lastSrc.NextSymbol()
		if !ok {
			break
		}
		if s == core.SymbolZero || s == core.SymbolOne {
			bits = append(bits, s)
		}
	}
	require.Len(t, bits, 24)
	// green first: 0x00
	for _, b := range bits[:8] {
		assert.Equal(t, core.SymbolZero, b)
	}
	for _, b := range bits[8:16] {
		assert.Equal(t, core.SymbolOne, b)
	}
}

func TestPixelValidate(t *testing.T) {
	p, _, _ := newPixel(t, types.OutputWS2811)

	assert.False(t, p.SetConfig(json.RawMessage(`{"interframe_gap":10}`)))
	assert.Equal(t, uint32(300), pixelCfg(t, p).InterFrameGapUs)

	assert.False(t, p.SetConfig(json.RawMessage(`{"color_order":"rgx"}`)))
	assert.Equal(t, "rgb", pixelCfg(t, p).ColorOrder)

	assert.False(t, p.SetConfig(json.RawMessage(`{"brightness":150}`)))
	assert.Equal(t, uint8(100), pixelCfg(t, p).Brightness)

	assert.False(t, p.SetConfig(json.RawMessage(`{"num_chan":5000}`)))
	assert.Equal(t, PixelDefaultChannels, pixelCfg(t, p).NumChannels)

	assert.True(t, p.SetConfig(json.RawMessage(`{"num_chan":30,"interframe_gap":1000,"color_order":"BGR","brightness":40}`)))
	assert.Equal(t, "bgr", pixelCfg(t, p).ColorOrder)
}

func TestPixelGapRebuildsTable(t *testing.T) {
	p, _, _ := newPixel(t, types.OutputWS2811)
	require.True(t, p.SetConfig(json.RawMessage(`{"interframe_gap":1000}`)))
	assert.Equal(t, uint16(4000), p.table[core.SymbolGap].Dur0)
}

func TestPixelPinChangeRebinds(t *testing.T) {
	p, seq, _ := newPixel(t, types.OutputWS2811)
	require.True(t, p.SetConfig(json.RawMessage(`{"data_pin":4}`)))
	require.Len(t, seq.cfgs, 2)
	assert.Equal(t, 4, seq.cfgs[1].Pin)
}

func TestPixelResizeWhileBusyAborts(t *testing.T) {
	p, seq, _ := newPixel(t, types.OutputWS2811)
	require.True(t, p.Render())
	require.True(t, p.SetConfig(json.RawMessage(`{"num_chan":30}`)))
	assert.Equal(t, 1, seq.aborts)
	assert.Equal(t, uint32(1), p.GetStatus().AbortedFrames)
	assert.Len(t, p.Buffer(), 30)
}

func TestPixelFrameDuration(t *testing.T) {
	assert.Equal(t, MinFrameDuration, PixelFrameDuration(waveform.WS2811, 300, 300*time.Microsecond))
	d := PixelFrameDuration(waveform.WS2811, 4080, 300*time.Microsecond)
	assert.Equal(t, 4080*8*1250*time.Nanosecond+300*time.Microsecond, d)
}

func TestPixelBeginError(t *testing.T) {
	seq, c := &fakeSeq{tick: 25, beginErr: errBoom}, newClock()
	p := NewPixel(pixelInput(types.OutputWS2811, seq, c))
	assert.Error(t, p.Begin())
	assert.False(t, p.Render())
}
