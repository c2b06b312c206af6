package driver

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/services/output/internal/serialenc"
	"pixelstick-go/types"
)

const (
	SerialMaxChannels     = 1024
	DMXMaxChannels        = 512
	SerialDefaultChannels = 64

	BaudMin     uint32 = 38400
	BaudMax     uint32 = 460800
	BaudDefault uint32 = 57600
	BaudDMX     uint32 = 250000

	MaxHeaderSize = 10
	MaxFooterSize = 10
)

// serialProfile is the per-protocol part of a serial driver.
type serialProfile struct {
	maxChannels int
	bits        uint8 // wire bits per symbol, start and stop included
	format      core.SerialFormat
	gap         time.Duration
	fixedBaud   uint32
	framing     bool
	encoder     func() serialenc.Encoder
}

var serialProfiles = map[types.OutputType]serialProfile{
	types.OutputDMX: {
		maxChannels: DMXMaxChannels,
		bits:        11,
		format:      core.SerialFormat{DataBits: 8, StopBits: 2, Parity: core.ParityNone},
		gap:         92*time.Microsecond + 12*time.Microsecond, // break + mark after break
		fixedBaud:   BaudDMX,
		encoder:     func() serialenc.Encoder { return serialenc.NewDMX() },
	},
	types.OutputRenard: {
		maxChannels: SerialMaxChannels,
		bits:        10,
		format:      core.SerialFormat{DataBits: 8, StopBits: 1, Parity: core.ParityNone},
		encoder:     func() serialenc.Encoder { return serialenc.NewRenard() },
	},
	types.OutputSerial: {
		maxChannels: SerialMaxChannels,
		bits:        10,
		format:      core.SerialFormat{DataBits: 8, StopBits: 1, Parity: core.ParityNone},
		framing:     true,
		encoder:     func() serialenc.Encoder { return serialenc.NewGeneric() },
	},
}

func init() {
	for t := range serialProfiles {
		RegisterBuilder(t, BuilderFunc(buildSerial))
	}
}

func buildSerial(in Input) (Driver, error) {
	if in.Ports.UART == nil {
		return nil, errPortMissing("uart")
	}
	return NewSerial(in), nil
}

// Serial drives DMX, Renard and Generic Framed Serial over a pull-based
// transmitter. The driver itself is the core.ByteSource handed to the
// transmitter; the in-flight flag is set by Render when arming and cleared
// from the pull context once the encoder reports the frame done.
type Serial struct {
	base
	prof serialProfile
	tx   core.Transmitter
	enc  serialenc.Encoder
	cfg  types.SerialConfig

	begun    bool
	inFlight atomic.Bool

	bytesSent atomic.Uint32
	bytesLast atomic.Uint32
	cursor    atomic.Int32
}

// NewSerial panics if in.Type has no serial profile.
func NewSerial(in Input) *Serial {
	prof, ok := serialProfiles[in.Type]
	if !ok {
		panic("driver: not a serial output type: " + in.Type.String())
	}
	s := &Serial{
		base: newBase(in),
		prof: prof,
		tx:   in.Ports.UART,
		enc:  prof.encoder(),
	}
	s.cfg = types.SerialConfig{NumChannels: SerialDefaultChannels, Baud: BaudDefault}
	s.validate(&s.cfg)
	s.apply(s.cfg)
	return s
}

func (s *Serial) format() core.SerialFormat {
	f := s.prof.format
	f.Baud = s.cfg.Baud
	return f
}

func (s *Serial) Begin() error {
	if err := s.tx.Begin(s.format()); err != nil {
		s.log.Error().Err(err).Msg("uart begin failed")
		return err
	}
	s.begun = true
	return nil
}

func (s *Serial) SetConfig(data json.RawMessage) bool {
	cfg := s.cfg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			s.log.Warn().Err(err).Msg("ignoring malformed channel config")
			return false
		}
	}
	ok := s.validate(&cfg)
	s.apply(cfg)
	return ok
}

// validate clamps cfg in place and reports whether it was already valid.
func (s *Serial) validate(cfg *types.SerialConfig) bool {
	ok := true
	if cfg.NumChannels < 1 || cfg.NumChannels > s.prof.maxChannels {
		s.log.Warn().Int("requested", cfg.NumChannels).Int("using", SerialDefaultChannels).
			Msg("channel count out of range")
		cfg.NumChannels = SerialDefaultChannels
		ok = false
	}
	if s.prof.fixedBaud != 0 {
		cfg.Baud = s.prof.fixedBaud
	} else if cfg.Baud < BaudMin || cfg.Baud > BaudMax {
		s.log.Warn().Uint32("requested", cfg.Baud).Uint32("using", BaudDefault).
			Msg("baud rate out of range")
		cfg.Baud = BaudDefault
		ok = false
	}
	if !s.prof.framing {
		cfg.Header, cfg.Footer = "", ""
	}
	if len(cfg.Header) > MaxHeaderSize {
		s.log.Warn().Int("len", len(cfg.Header)).Msg("header too long, cleared")
		cfg.Header = ""
	}
	if len(cfg.Footer) > MaxFooterSize {
		s.log.Warn().Int("len", len(cfg.Footer)).Msg("footer too long, cleared")
		cfg.Footer = ""
	}
	return ok
}

// apply installs a validated config. Anything the pull context reads is
// only replaced after the transmitter has been quiesced.
func (s *Serial) apply(cfg types.SerialConfig) {
	if cfg != s.cfg || s.buf == nil {
		s.quiesce()
		if s.resize(cfg.NumChannels) {
			s.cursor.Store(0)
		}
		if g, ok := s.enc.(*serialenc.Generic); ok {
			g.SetFraming([]byte(cfg.Header), []byte(cfg.Footer))
		}
		baudChanged := cfg.Baud != s.cfg.Baud
		s.cfg = cfg
		if baudChanged && s.begun {
			if err := s.tx.Begin(s.format()); err != nil {
				s.log.Error().Err(err).Uint32("baud", cfg.Baud).Msg("uart reconfigure failed")
			}
		}
	}
	s.minFrame = SerialFrameDuration(cfg.Baud, s.prof.bits, cfg.NumChannels,
		len(cfg.Header), len(cfg.Footer), s.prof.gap)
}

// quiesce stops any frame in flight. On return the pull context no longer
// touches the encoder or the buffer.
func (s *Serial) quiesce() {
	if !s.inFlight.Load() && !s.tx.Busy() {
		return
	}
	s.tx.Abort()
	if s.inFlight.Swap(false) {
		s.aborted.Add(1)
	}
}

func (s *Serial) GetConfig() json.RawMessage { return marshal(s.cfg) }

func (s *Serial) GetStatus() types.ChannelStatus {
	st := s.status()
	st.Cursor = int(s.cursor.Load())
	st.BytesSent = s.bytesSent.Load()
	st.BytesSentLastFrame = s.bytesLast.Load()
	return st
}

func (s *Serial) Render() bool {
	if !s.begun {
		return false
	}
	now := s.now()
	if !s.frameDue(now) || s.inFlight.Load() || s.tx.Busy() {
		return false
	}
	if s.enc.Busy() {
		// Previous frame never drained; it is restarted from the top.
		s.aborted.Add(1)
	}
	s.enc.StartNewFrame(s.buf)
	s.bytesSent.Store(0)
	s.cursor.Store(0)
	s.inFlight.Store(true)
	if !s.tx.Start(s) {
		s.inFlight.Store(false)
		return false
	}
	s.lastStart = now
	s.frameStarts.Add(1)
	return true
}

// NextByte is called from the transmitter's pull context.
func (s *Serial) NextByte() (byte, bool) {
	b, ok := s.enc.NextByte()
	if !ok {
		s.bytesLast.Store(s.bytesSent.Load())
		s.frameEnds.Add(1)
		s.inFlight.Store(false)
		return 0, false
	}
	s.bytesSent.Add(1)
	s.cursor.Store(int32(s.enc.Cursor()))
	return b, true
}

func (s *Serial) Close() error {
	s.quiesce()
	s.begun = false
	s.buf = nil
	return nil
}
