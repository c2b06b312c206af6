package pattern

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelstick-go/bus"
)

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeChase, ParseMode("Chase"))
	assert.Equal(t, ModeFade, ParseMode("fade"))
	assert.Equal(t, ModeOff, ParseMode("sparkle"))
	assert.Equal(t, "solid", ModeSolid.String())
}

func TestFillChaseWalksTriples(t *testing.T) {
	buf := make([]byte, 7)
	Fill(buf, ModeChase, 1, 9)
	assert.Equal(t, []byte{0, 0, 0, 9, 9, 9, 0}, buf)
	Fill(buf, ModeChase, 2, 9)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 9}, buf)
	Fill(buf, ModeChase, 3, 9)
	assert.Equal(t, []byte{9, 9, 9, 0, 0, 0, 0}, buf)
}

func TestFillSolidFadeOff(t *testing.T) {
	buf := []byte{1, 2, 3}
	Fill(buf, ModeOff, 5, 200)
	assert.Equal(t, []byte{1, 2, 3}, buf)

	Fill(buf, ModeSolid, 0, 200)
	assert.Equal(t, []byte{200, 200, 200}, buf)

	Fill(buf, ModeFade, 0, 200)
	assert.Equal(t, []byte{0, 0, 0}, buf)
	Fill(buf, ModeFade, fadeSteps/2, 200)
	assert.Equal(t, []byte{200, 200, 200}, buf)

	Fill(nil, ModeChase, 1, 1)
}

type fakeBuffers struct {
	bufs  [][]byte
	calls atomic.Int32
}

func (f *fakeBuffers) NumChannels() int { return len(f.bufs) }
func (f *fakeBuffers) GetBufferAddress(id int) []byte {
	f.calls.Add(1)
	return f.bufs[id]
}

func TestStepFillsEveryChannel(t *testing.T) {
	out := &fakeBuffers{bufs: [][]byte{make([]byte, 3), make([]byte, 6)}}
	s := New(nil, out, zerolog.Nop())
	s.Step()
	assert.Equal(t, []byte{0, 0, 0}, out.bufs[0], "off writes nothing")

	lvl := uint8(50)
	s.apply(Config{Mode: "solid", Level: &lvl})
	s.Step()
	assert.Equal(t, []byte{50, 50, 50}, out.bufs[0])
	assert.Equal(t, []byte{50, 50, 50, 50, 50, 50}, out.bufs[1])
	assert.Equal(t, uint32(1), s.step)
}

func TestApplyClampsPeriod(t *testing.T) {
	s := New(nil, &fakeBuffers{}, zerolog.Nop())
	s.apply(Config{Mode: "chase", PeriodMs: 1})
	assert.Equal(t, minPeriod, s.period)
	assert.Equal(t, uint8(0xFF), s.level)
	s.apply(Config{Mode: "chase"})
	assert.Equal(t, defaultPeriod, s.period)
}

func TestRunAppliesRetainedConfig(t *testing.T) {
	b := bus.NewBus(4)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(topicConfigPattern, json.RawMessage(`{"mode":"solid","period_ms":5,"level":7}`), true))

	out := &fakeBuffers{bufs: [][]byte{make([]byte, 3)}}
	s := New(b.NewConnection("pattern"), out, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return out.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, []byte{7, 7, 7}, out.bufs[0])
	assert.Equal(t, ModeSolid, s.mode)
}
