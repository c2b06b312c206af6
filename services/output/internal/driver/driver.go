// Package driver binds one channel buffer to a frame encoder and a
// peripheral. Drivers are built per output type through a registry of
// builders, so supported protocols form a closed table rather than a class
// hierarchy.
package driver

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/types"
)

// Driver is one active output channel.
//
// Begin binds the peripheral without transmitting. SetConfig validates,
// clamps and applies om_channel_data; it returns false if anything had to be
// corrected but always leaves the driver usable. Render starts a frame when
// one is due and the peripheral is idle, and reports whether it did. The
// slice returned by Buffer is valid until the next SetConfig or Close.
type Driver interface {
	ID() int
	Type() types.OutputType
	Name() string
	Begin() error
	SetConfig(data json.RawMessage) bool
	GetConfig() json.RawMessage
	GetStatus() types.ChannelStatus
	Render() bool
	Buffer() []byte
	Close() error
}

// Input is what a builder receives for one slot.
type Input struct {
	ID    int
	Type  types.OutputType
	Ports core.ChannelPorts
	Log   zerolog.Logger
	Now   func() time.Time
}

type Builder interface {
	Build(in Input) (Driver, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(in Input) (Driver, error)

func (f BuilderFunc) Build(in Input) (Driver, error) { return f(in) }

var (
	regMu    sync.RWMutex
	builders = map[types.OutputType]Builder{}
)

// RegisterBuilder installs the builder for an output type. Registering the
// same type twice panics.
func RegisterBuilder(t types.OutputType, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[t]; exists {
		panic("duplicate output builder: " + t.String())
	}
	builders[t] = b
}

func lookupBuilder(t types.OutputType) (Builder, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	b, ok := builders[t]
	return b, ok
}

// Supported lists the registered output types in enum order.
func Supported() []types.OutputType {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]types.OutputType, 0, len(builders))
	for t := types.OutputType(0); t < types.OutputTypeEnd; t++ {
		if _, ok := builders[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Build returns a driver for in.Type. Unknown types and slots whose ports
// cannot serve the type resolve to a Disabled driver.
func Build(in Input) Driver {
	if in.Now == nil {
		in.Now = time.Now
	}
	in.Log = in.Log.With().Int("chan", in.ID).Str("driver", in.Type.String()).Logger()

	b, ok := lookupBuilder(in.Type)
	if !ok {
		if in.Type != types.OutputDisabled {
			in.Log.Warn().Msg("unsupported output type, channel disabled")
		}
		return NewDisabled(in.ID)
	}
	d, err := b.Build(in)
	if err != nil {
		in.Log.Warn().Err(err).Msg("cannot build driver, channel disabled")
		return NewDisabled(in.ID)
	}
	return d
}

// base carries what every transmitting driver shares: identity, buffer,
// frame pacing and the diagnostic counters. Counters are atomics because the
// pull context updates some of them.
type base struct {
	id  int
	typ types.OutputType
	log zerolog.Logger
	now func() time.Time

	buf       []byte
	minFrame  time.Duration
	lastStart time.Time

	frameStarts atomic.Uint32
	frameEnds   atomic.Uint32
	aborted     atomic.Uint32
}

func newBase(in Input) base {
	return base{id: in.ID, typ: in.Type, log: in.Log, now: in.Now}
}

func (b *base) ID() int                { return b.id }
func (b *base) Type() types.OutputType { return b.typ }
func (b *base) Name() string           { return b.typ.String() }
func (b *base) Buffer() []byte         { return b.buf }

// frameDue reports whether the minimum frame duration has elapsed since the
// previous frame start.
func (b *base) frameDue(now time.Time) bool {
	return b.lastStart.IsZero() || now.Sub(b.lastStart) >= b.minFrame
}

// resize replaces the buffer with a fresh zeroed one when n differs. Any
// window handed out before becomes stale.
func (b *base) resize(n int) bool {
	if n == len(b.buf) && b.buf != nil {
		return false
	}
	b.buf = make([]byte, n)
	return true
}

func (b *base) status() types.ChannelStatus {
	return types.ChannelStatus{
		ID:            b.id,
		Type:          b.typ,
		Driver:        b.Name(),
		NumChannels:   len(b.buf),
		FrameStarts:   b.frameStarts.Load(),
		FrameEnds:     b.frameEnds.Load(),
		AbortedFrames: b.aborted.Load(),
		FrameMinUs:    uint32(b.minFrame / time.Microsecond),
	}
}

func marshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
