package driver

import (
	"encoding/json"
	"time"

	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/services/output/internal/waveform"
	"pixelstick-go/types"
)

const (
	PixelMaxChannels     = 4080
	PixelDefaultChannels = 300
	DefaultBrightness    = 100
)

var pixelChips = map[types.OutputType]waveform.Chip{
	types.OutputWS2811:  waveform.WS2811,
	types.OutputUCS1903: waveform.UCS1903,
}

func init() {
	for t := range pixelChips {
		RegisterBuilder(t, BuilderFunc(buildPixel))
	}
}

func buildPixel(in Input) (Driver, error) {
	if in.Ports.Pulse == nil {
		return nil, errPortMissing("pulse")
	}
	return NewPixel(in), nil
}

// Pixel drives a single-wire pixel string through a pulse sequencer. Once
// submitted the frame free-runs; Render only looks at the busy flag.
type Pixel struct {
	base
	chip  waveform.Chip
	seq   core.PulseSequencer
	src   *waveform.Source
	table core.SymbolTable
	cfg   types.PixelConfig

	begun   bool
	pending bool // a submitted frame has not been seen complete yet
}

// NewPixel panics if in.Type is not a pixel output type.
func NewPixel(in Input) *Pixel {
	chip, ok := pixelChips[in.Type]
	if !ok {
		panic("driver: not a pixel output type: " + in.Type.String())
	}
	p := &Pixel{
		base: newBase(in),
		chip: chip,
		seq:  in.Ports.Pulse,
		src:  waveform.NewSource(),
	}
	p.cfg = types.PixelConfig{
		NumChannels:     PixelDefaultChannels,
		InterFrameGapUs: chip.IdleUs(),
		ColorOrder:      waveform.OrderRGB.String(),
		Brightness:      DefaultBrightness,
	}
	p.apply(p.cfg)
	return p
}

func (p *Pixel) Begin() error {
	if err := p.seq.Begin(core.PulseConfig{Pin: p.cfg.DataPin}); err != nil {
		p.log.Error().Err(err).Int("pin", p.cfg.DataPin).Msg("pulse sequencer begin failed")
		return err
	}
	p.begun = true
	p.rebuildTable()
	return nil
}

func (p *Pixel) rebuildTable() {
	p.table = waveform.BuildTable(p.chip, p.seq.TickNS(), p.cfg.InterFrameGapUs*1000)
}

func (p *Pixel) SetConfig(data json.RawMessage) bool {
	cfg := p.cfg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			p.log.Warn().Err(err).Msg("ignoring malformed channel config")
			return false
		}
	}
	ok := p.validate(&cfg)
	p.apply(cfg)
	return ok
}

func (p *Pixel) validate(cfg *types.PixelConfig) bool {
	ok := true
	if cfg.NumChannels < 1 || cfg.NumChannels > PixelMaxChannels {
		p.log.Warn().Int("requested", cfg.NumChannels).Int("using", PixelDefaultChannels).
			Msg("channel count out of range")
		cfg.NumChannels = PixelDefaultChannels
		ok = false
	}
	if idle := p.chip.IdleUs(); cfg.InterFrameGapUs < idle {
		p.log.Warn().Uint32("requested", cfg.InterFrameGapUs).Uint32("using", idle).
			Msg("interframe gap below chip idle time")
		cfg.InterFrameGapUs = idle
		ok = false
	}
	if o, valid := waveform.ParseColorOrder(cfg.ColorOrder); !valid {
		p.log.Warn().Str("requested", cfg.ColorOrder).Msg("invalid color order, using rgb")
		cfg.ColorOrder = waveform.OrderRGB.String()
		ok = false
	} else {
		cfg.ColorOrder = o.String()
	}
	if cfg.Brightness > 100 {
		p.log.Warn().Uint8("requested", cfg.Brightness).Msg("brightness above 100%")
		cfg.Brightness = DefaultBrightness
		ok = false
	}
	return ok
}

// apply installs a validated config, stopping the sequencer first if it
// might still be reading the buffer, the table or the source.
func (p *Pixel) apply(cfg types.PixelConfig) {
	if cfg != p.cfg || p.buf == nil {
		p.quiesce()
		p.resize(cfg.NumChannels)
		o, _ := waveform.ParseColorOrder(cfg.ColorOrder)
		p.src.SetColorOrder(o)
		p.src.SetBrightness(cfg.Brightness)

		pinChanged := cfg.DataPin != p.cfg.DataPin
		p.cfg = cfg
		if p.begun {
			if pinChanged {
				if err := p.seq.Begin(core.PulseConfig{Pin: cfg.DataPin}); err != nil {
					p.log.Error().Err(err).Int("pin", cfg.DataPin).Msg("pulse sequencer rebind failed")
				}
			}
			p.rebuildTable()
		}
	}
	gap := time.Duration(cfg.InterFrameGapUs) * time.Microsecond
	p.minFrame = PixelFrameDuration(p.chip, cfg.NumChannels, gap)
}

func (p *Pixel) quiesce() {
	if !p.seq.Busy() {
		p.settle()
		return
	}
	p.seq.Abort()
	if p.pending {
		p.pending = false
		p.aborted.Add(1)
	}
}

// settle books the end of a frame the sequencer has finished.
func (p *Pixel) settle() {
	if p.pending && !p.seq.Busy() {
		p.pending = false
		p.frameEnds.Add(1)
	}
}

func (p *Pixel) GetConfig() json.RawMessage { return marshal(p.cfg) }

func (p *Pixel) GetStatus() types.ChannelStatus {
	st := p.status()
	if !p.pending {
		st.Cursor = len(p.buf)
	}
	st.BytesSentLastFrame = uint32(len(p.buf))
	return st
}

func (p *Pixel) Render() bool {
	if !p.begun {
		return false
	}
	p.settle()
	now := p.now()
	if p.seq.Busy() || !p.frameDue(now) {
		return false
	}
	p.src.Reset(p.buf)
	if !p.seq.Submit(&p.table, p.src) {
		return false
	}
	p.pending = true
	p.lastStart = now
	p.frameStarts.Add(1)
	return true
}

func (p *Pixel) Close() error {
	p.quiesce()
	p.begun = false
	p.buf = nil
	return nil
}
