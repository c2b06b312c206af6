// Package output is the bus service around the channel manager. It applies
// configuration from config/output, answers control requests, runs the
// render tick and publishes retained status and state.
package output

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/bus"
	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/consts"
	"pixelstick-go/services/output/internal/manager"
	"pixelstick-go/types"
)

var (
	topicConfigOutput = bus.T(consts.TokConfig, consts.TokOutput)
	topicCtrl         = bus.T(consts.TokOutput, consts.TokControl, "+")
	topicStatus       = bus.T(consts.TokOutput, consts.TokStatus)
	topicState        = bus.T(consts.TokOutput, consts.TokState)
)

type Service struct {
	conn *bus.Connection
	mgr  *manager.Manager
	log  zerolog.Logger

	renderPeriod time.Duration
	statusPeriod time.Duration
}

type ServiceOption func(*Service)

func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithPeriods overrides the render and status periods. Zero keeps the
// default.
func WithPeriods(render, status time.Duration) ServiceOption {
	return func(s *Service) {
		if render > 0 {
			s.renderPeriod = render
		}
		if status > 0 {
			s.statusPeriod = status
		}
	}
}

func NewService(conn *bus.Connection, mgr *Manager, opts ...ServiceOption) *Service {
	s := &Service{
		conn:         conn,
		mgr:          mgr,
		log:          zerolog.Nop(),
		renderPeriod: consts.DefaultRenderPeriod,
		statusPeriod: consts.DefaultStatusPeriod,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start runs the service loop in its own goroutine.
func (s *Service) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run blocks until ctx is cancelled, then closes the manager.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfigOutput)
	ctrlSub := s.conn.Subscribe(topicCtrl)
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState(consts.LevelIdle, "starting")
	s.mgr.Begin()
	s.publishState(consts.LevelReady, "running")
	s.publishStatus()

	render := time.NewTicker(s.renderPeriod)
	defer render.Stop()
	status := time.NewTicker(s.statusPeriod)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.mgr.Close(); err != nil {
				s.log.Error().Err(err).Msg("closing outputs")
			}
			s.publishState(consts.LevelStopped, "context_cancelled")
			return

		case msg := <-cfgSub.Channel():
			s.applyConfig(msg.Payload)

		case msg := <-ctrlSub.Channel():
			s.control(msg)

		case <-render.C:
			s.mgr.Render()

		case <-status.C:
			s.publishStatus()
		}
	}
}

func (s *Service) applyConfig(payload any) (types.OutputConfig, bool, error) {
	doc, err := decodeConfig(payload)
	if err != nil {
		s.log.Warn().Err(err).Msg("output config rejected")
		s.publishState(consts.LevelDegraded, string(errcode.InvalidPayload))
		return doc, false, err
	}
	valid := s.mgr.SetConfig(&doc)
	if valid {
		s.publishState(consts.LevelReady, "configured")
	} else {
		s.publishState(consts.LevelDegraded, "config_corrected")
	}
	return doc, valid, nil
}

func (s *Service) control(msg *bus.Message) {
	if msg.Topic.Len() < 3 {
		return
	}
	verb, _ := msg.Topic.At(2).(string)
	switch verb {
	case consts.CtrlGetConfig:
		s.conn.Reply(msg, types.OKReply{OK: true, Result: s.mgr.GetConfig()}, false)

	case consts.CtrlSetConfig:
		doc, valid, err := s.applyConfig(msg.Payload)
		if err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		s.conn.Reply(msg, types.SetConfigReply{OK: true, Valid: valid, Config: doc}, false)

	case consts.CtrlGetStatus:
		s.conn.Reply(msg, types.OKReply{OK: true, Result: s.mgr.GetStatus()}, false)

	case consts.CtrlSave:
		if err := s.mgr.SaveConfig(); err != nil {
			s.log.Error().Err(err).Msg("saving output config")
			s.replyErr(msg, errcode.Of(err))
			return
		}
		s.conn.Reply(msg, types.OKReply{OK: true}, false)

	default:
		s.replyErr(msg, errcode.Unsupported)
	}
}

func (s *Service) replyErr(msg *bus.Message, c errcode.Code) {
	s.conn.Reply(msg, types.ErrorReply{OK: false, Error: string(c)}, false)
}

func (s *Service) publishStatus() {
	s.conn.Publish(s.conn.NewMessage(topicStatus, s.mgr.GetStatus(), true))
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(topicState, types.OutputState{
		Level:  level,
		Status: status,
		TS:     time.Now().UnixMilli(),
	}, true))
}

// decodeConfig accepts the config as a typed value or as any JSON form.
func decodeConfig(src any) (types.OutputConfig, error) {
	var doc types.OutputConfig
	var err error
	switch v := src.(type) {
	case types.OutputConfig:
		return v, nil
	case *types.OutputConfig:
		if v == nil {
			return doc, errcode.InvalidPayload
		}
		return *v, nil
	case json.RawMessage:
		err = json.Unmarshal(v, &doc)
	case []byte:
		err = json.Unmarshal(v, &doc)
	case string:
		err = json.Unmarshal([]byte(v), &doc)
	case nil:
		return doc, errcode.InvalidPayload
	default:
		var b []byte
		if b, err = json.Marshal(v); err == nil {
			err = json.Unmarshal(b, &doc)
		}
	}
	if err != nil {
		return doc, errcode.Wrap(errcode.InvalidPayload, "decode_config", err)
	}
	return doc, nil
}
