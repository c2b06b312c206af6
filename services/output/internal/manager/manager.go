// Package manager owns the fixed table of output channel slots. It builds,
// reconfigures and tears down drivers per requested output type and fans
// out render, config and status calls.
package manager

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/services/output/internal/driver"
	"pixelstick-go/services/output/internal/store"
	"pixelstick-go/types"
)

type slot struct {
	ports core.ChannelPorts
	drv   driver.Driver
}

// Manager is created once per process and passed to the control loop and to
// the ingestion and configuration collaborators.
type Manager struct {
	mu    sync.Mutex
	slots []slot
	log   zerolog.Logger
	now   func() time.Time
	store store.Store
}

type Option func(*Manager)

func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.log = l } }
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}
func WithStore(s store.Store) Option { return func(m *Manager) { m.store = s } }

// New creates one slot per entry of ports. Every slot starts Disabled.
func New(ports []core.ChannelPorts, opts ...Option) *Manager {
	m := &Manager{log: zerolog.Nop(), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	m.slots = make([]slot, len(ports))
	for i, p := range ports {
		m.slots[i] = slot{ports: p, drv: driver.NewDisabled(i)}
	}
	return m
}

// NumChannels is the fixed slot count.
func (m *Manager) NumChannels() int { return len(m.slots) }

// Begin loads the persisted configuration, creating a default one when
// none exists, and starts the configured drivers.
func (m *Manager) Begin() {
	if m.store == nil {
		m.log.Info().Int("channels", len(m.slots)).Msg("no config store, applying defaults")
		doc := m.DefaultConfig()
		m.SetConfig(&doc)
		return
	}
	m.LoadConfig()
}

// DefaultConfig puts a WS2811 driver on every slot with a pulse sequencer
// and leaves serial-only slots Disabled.
func (m *Manager) DefaultConfig() types.OutputConfig {
	doc := types.OutputConfig{Channels: make([]types.ChannelConfig, len(m.slots))}
	for i, s := range m.slots {
		t := types.OutputDisabled
		if s.ports.Pulse != nil {
			t = types.OutputWS2811
		}
		doc.Channels[i] = types.ChannelConfig{ID: i, Type: t}
	}
	return doc
}

// SetConfig applies every channel entry of doc and writes the values
// actually in use back into it. It returns true only if every touched
// driver accepted its data unchanged.
func (m *Manager) SetConfig(doc *types.OutputConfig) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := true
	for i := range doc.Channels {
		cc := &doc.Channels[i]
		if cc.ID < 0 || cc.ID >= len(m.slots) {
			m.log.Warn().Int("chan", cc.ID).Msg("config for unknown channel ignored")
			ok = false
			continue
		}
		s := &m.slots[cc.ID]
		if s.drv.Type() != cc.Type {
			m.replace(cc.ID, cc.Type)
		}
		if !s.drv.SetConfig(cc.Data) {
			ok = false
		}
		cc.Type = s.drv.Type()
		cc.Data = s.drv.GetConfig()
	}
	for i := range doc.Channels {
		if id := doc.Channels[i].ID; id >= 0 && id < len(m.slots) {
			doc.Channels[i].StartChan = m.startChan(id)
		}
	}
	return ok
}

// replace tears down the driver of slot id and installs one of type t.
// The old driver is quiesced by its Close before its buffer is dropped.
func (m *Manager) replace(id int, t types.OutputType) {
	s := &m.slots[id]
	old := s.drv.Type()
	if err := s.drv.Close(); err != nil {
		m.log.Error().Err(err).Int("chan", id).Msg("driver close failed")
	}
	d := driver.Build(driver.Input{
		ID:    id,
		Type:  t,
		Ports: s.ports,
		Log:   m.log,
		Now:   m.now,
	})
	if err := d.Begin(); err != nil {
		_ = d.Close()
		d = driver.NewDisabled(id)
	}
	s.drv = d
	m.log.Info().Int("chan", id).Str("from", old.String()).Str("to", d.Type().String()).
		Msg("output type changed")
}

func (m *Manager) startChan(id int) int {
	n := 0
	for i := 0; i < id; i++ {
		n += len(m.slots[i].drv.Buffer())
	}
	return n
}

func (m *Manager) GetConfig() types.OutputConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := types.OutputConfig{Channels: make([]types.ChannelConfig, len(m.slots))}
	start := 0
	for i, s := range m.slots {
		doc.Channels[i] = types.ChannelConfig{
			ID:        i,
			Type:      s.drv.Type(),
			StartChan: start,
			Data:      s.drv.GetConfig(),
		}
		start += len(s.drv.Buffer())
	}
	return doc
}

func (m *Manager) GetStatus() types.OutputStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := types.OutputStatus{
		Channels: make([]types.ChannelStatus, len(m.slots)),
		TS:       m.now().UnixMilli(),
	}
	for i, s := range m.slots {
		st.Channels[i] = s.drv.GetStatus()
	}
	return st
}

// Render gives every active driver the chance to start a frame. It returns
// how many frames were started.
func (m *Manager) Render() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.slots {
		if s.drv.Type() == types.OutputDisabled {
			continue
		}
		if s.drv.Render() {
			n++
		}
	}
	return n
}

// GetBufferAddress returns the intensity window of channel id. It must be
// fetched again after any SetConfig touching that channel; writing past
// GetBufferSize is the caller's fault.
func (m *Manager) GetBufferAddress(id int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.slots) {
		return nil
	}
	return m.slots[id].drv.Buffer()
}

func (m *Manager) GetBufferSize(id int) int { return len(m.GetBufferAddress(id)) }

// LoadConfig applies the stored document. A missing document is replaced by
// DefaultConfig and saved; a document that needed correcting is saved back.
func (m *Manager) LoadConfig() bool {
	if m.store == nil {
		return false
	}
	raw, err := m.store.Load()
	if errcode.Of(err) == errcode.NotFound {
		m.log.Info().Msg("no saved output config, creating default")
		doc := m.DefaultConfig()
		m.SetConfig(&doc)
		if err := m.SaveConfig(); err != nil {
			m.log.Error().Err(err).Msg("saving default config failed")
		}
		return true
	}
	if err != nil {
		m.log.Error().Err(err).Msg("loading output config failed")
		return false
	}
	var doc types.OutputConfig
	if err := json.Unmarshal(raw, &doc); err != nil {
		m.log.Warn().Err(err).Msg("stored output config is not valid JSON")
		return false
	}
	if !m.SetConfig(&doc) {
		m.log.Warn().Msg("stored output config corrected")
		if err := m.SaveConfig(); err != nil {
			m.log.Error().Err(err).Msg("saving corrected config failed")
		}
	}
	return true
}

func (m *Manager) SaveConfig() error {
	if m.store == nil {
		return errcode.NotReady
	}
	b, err := json.MarshalIndent(m.GetConfig(), "", "  ")
	if err != nil {
		return errcode.Wrap(errcode.Error, "save", err)
	}
	return m.store.Save(b)
}

// Close quiesces and releases every driver, then closes the peripherals.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for i := range m.slots {
		s := &m.slots[i]
		if err := s.drv.Close(); err != nil {
			errs = append(errs, err)
		}
		s.drv = driver.NewDisabled(i)
		if s.ports.UART != nil {
			if err := s.ports.UART.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.ports.Pulse != nil {
			if err := s.ports.Pulse.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
