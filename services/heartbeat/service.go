package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/bus"
	"pixelstick-go/types"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicOutputStatus    = bus.T("output", "status")
)

const defaultInterval = time.Second

type Config struct {
	Interval float64 `json:"interval"` // seconds
}

// Summary is what one heartbeat line reports.
type Summary struct {
	Channels int
	Active   int // channels not Disabled
	Frames   uint32
	Aborted  uint32
	Since    uint32 // frames completed since the previous beat
}

type Service struct {
	log  zerolog.Logger
	last types.OutputStatus
	prev uint32
}

func New(log zerolog.Logger) *Service {
	return &Service{log: log}
}

func (s *Service) summarise() Summary {
	var sum Summary
	for _, c := range s.last.Channels {
		sum.Channels++
		if c.Type != types.OutputDisabled {
			sum.Active++
		}
		sum.Frames += c.FrameEnds
		sum.Aborted += c.AbortedFrames
	}
	sum.Since = sum.Frames - s.prev
	s.prev = sum.Frames
	return sum
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	stSub := conn.Subscribe(topicOutputStatus)
	defer conn.Unsubscribe(stSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("heartbeat service stopping")
			return
		case t := <-tick.C:
			sum := s.summarise()
			s.log.Info().
				Str("at", t.Format("15:04:05")).
				Int("channels", sum.Channels).
				Int("active", sum.Active).
				Uint32("frames", sum.Frames).
				Uint32("frames_since", sum.Since).
				Uint32("aborted", sum.Aborted).
				Msg("heartbeat")
		case msg := <-stSub.Channel():
			if st, ok := msg.Payload.(types.OutputStatus); ok {
				s.last = st
			}
		case msg := <-cfgSub.Channel():
			if iv, ok := decodeInterval(msg.Payload); ok {
				tick.Reset(iv)
				s.log.Info().Dur("interval", iv).Msg("heartbeat interval set")
			}
		}
	}
}

func decodeInterval(p any) (time.Duration, bool) {
	var cfg Config
	switch v := p.(type) {
	case json.RawMessage:
		if json.Unmarshal(v, &cfg) != nil {
			return 0, false
		}
	case map[string]any:
		f, ok := v["interval"].(float64)
		if !ok {
			return 0, false
		}
		cfg.Interval = f
	case Config:
		cfg = v
	default:
		return 0, false
	}
	if cfg.Interval <= 0 {
		return 0, false
	}
	return time.Duration(cfg.Interval * float64(time.Second)), true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
