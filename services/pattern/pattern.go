// Package pattern writes built-in test patterns into the channel buffers.
// It stands in for a show source when no ingestion path is attached.
package pattern

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/bus"
	"pixelstick-go/x/ramp"
)

var topicConfigPattern = bus.T("config", "pattern")

type Mode uint8

const (
	ModeOff Mode = iota
	ModeSolid
	ModeChase
	ModeFade
)

var modeNames = [...]string{"off", "solid", "chase", "fade"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "off"
}

func ParseMode(s string) Mode {
	for i, n := range modeNames {
		if strings.EqualFold(n, s) {
			return Mode(i)
		}
	}
	return ModeOff
}

const (
	defaultPeriod = 40 * time.Millisecond
	minPeriod     = 5 * time.Millisecond
	fadeSteps     = 64
)

type Config struct {
	Mode     string `json:"mode"`
	PeriodMs uint32 `json:"period_ms"`
	Level    *uint8 `json:"level,omitempty"` // default full
}

// Buffers is the part of the output manager a pattern needs.
type Buffers interface {
	NumChannels() int
	GetBufferAddress(id int) []byte
}

// Fill writes step of mode into buf. ModeOff leaves buf untouched.
func Fill(buf []byte, mode Mode, step uint32, level uint8) {
	switch mode {
	case ModeSolid:
		for i := range buf {
			buf[i] = level
		}
	case ModeChase:
		// One lit triple walks along the buffer.
		clear(buf)
		if len(buf) == 0 {
			return
		}
		groups := (len(buf) + 2) / 3
		at := int(step%uint32(groups)) * 3
		for i := at; i < at+3 && i < len(buf); i++ {
			buf[i] = level
		}
	case ModeFade:
		v := byte(ramp.Triangle(uint16(step%fadeSteps), fadeSteps, uint16(level)))
		for i := range buf {
			buf[i] = v
		}
	}
}

type Service struct {
	conn *bus.Connection
	out  Buffers
	log  zerolog.Logger

	mode   Mode
	level  uint8
	period time.Duration
	step   uint32
}

func New(conn *bus.Connection, out Buffers, log zerolog.Logger) *Service {
	return &Service{conn: conn, out: out, log: log, level: 0xFF, period: defaultPeriod}
}

func (s *Service) apply(cfg Config) {
	s.mode = ParseMode(cfg.Mode)
	s.period = defaultPeriod
	if cfg.PeriodMs > 0 {
		s.period = max(time.Duration(cfg.PeriodMs)*time.Millisecond, minPeriod)
	}
	s.level = 0xFF
	if cfg.Level != nil {
		s.level = *cfg.Level
	}
	s.step = 0
	s.log.Info().Stringer("mode", s.mode).Dur("period", s.period).Uint8("level", s.level).Msg("pattern configured")
}

// Step advances every channel buffer by one pattern step.
func (s *Service) Step() {
	if s.mode == ModeOff {
		return
	}
	for id := 0; id < s.out.NumChannels(); id++ {
		Fill(s.out.GetBufferAddress(id), s.mode, s.step, s.level)
	}
	s.step++
}

func decodeConfig(p any) (Config, bool) {
	var cfg Config
	switch v := p.(type) {
	case Config:
		return v, true
	case json.RawMessage:
		return cfg, json.Unmarshal(v, &cfg) == nil
	case []byte:
		return cfg, json.Unmarshal(v, &cfg) == nil
	case string:
		return Config{Mode: v}, true
	}
	return cfg, false
}

func (s *Service) Run(ctx context.Context) {
	sub := s.conn.Subscribe(topicConfigPattern)
	defer s.conn.Unsubscribe(sub)

	tick := time.NewTicker(s.period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			cfg, ok := decodeConfig(msg.Payload)
			if !ok {
				s.log.Warn().Msg("bad pattern config")
				continue
			}
			s.apply(cfg)
			tick.Reset(s.period)
		case <-tick.C:
			s.Step()
		}
	}
}

func (s *Service) Start(ctx context.Context) { go s.Run(ctx) }
