//go:build !rp2040 && !rp2350

package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output"
	"pixelstick-go/x/strx"
)

const (
	defaultDevice     = "host"
	defaultConfigPath = "output.json"
	defaultLogLevel   = "info"
)

type Channel struct {
	Serial string `yaml:"serial"`  // e.g. /dev/ttyUSB0
	SPI    string `yaml:"spi"`     // e.g. /dev/spidev0.0
	SPIHz  uint32 `yaml:"spi_hz"`  // default 8 MHz
}

type Pattern struct {
	Mode     string `yaml:"mode"`
	PeriodMs uint32 `yaml:"period_ms"`
	Level    *uint8 `yaml:"level"`
}

// Board describes the host wiring: one entry per output slot.
type Board struct {
	Device         string    `yaml:"device"`
	ConfigPath     string    `yaml:"config_path"`
	LogLevel       string    `yaml:"log_level"`
	RenderPeriodMs uint32    `yaml:"render_period_ms"`
	StatusPeriodMs uint32    `yaml:"status_period_ms"`
	Channels       []Channel `yaml:"channels"`
	Pattern        *Pattern  `yaml:"pattern,omitempty"`
}

func LoadBoard(path string) (*Board, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBoard(b)
}

func ParseBoard(raw []byte) (*Board, error) {
	var bd Board
	if err := yaml.Unmarshal(raw, &bd); err != nil {
		return nil, errcode.Wrap(errcode.InvalidPayload, "board", err)
	}
	bd.Device = strx.Coalesce(bd.Device, defaultDevice)
	bd.ConfigPath = strx.Coalesce(bd.ConfigPath, defaultConfigPath)
	bd.LogLevel = strx.Coalesce(bd.LogLevel, defaultLogLevel)
	if err := bd.validate(); err != nil {
		return nil, err
	}
	return &bd, nil
}

func (b *Board) validate() error {
	if len(b.Channels) == 0 {
		return &errcode.E{C: errcode.InvalidParams, Op: "board", Msg: "no channels"}
	}
	seen := map[string]bool{}
	for _, c := range b.Channels {
		for _, dev := range []string{c.Serial, c.SPI} {
			if dev == "" {
				continue
			}
			if seen[dev] {
				return &errcode.E{C: errcode.InvalidParams, Op: "board", Msg: dev + " used by more than one channel"}
			}
			seen[dev] = true
		}
	}
	return nil
}

func (b *Board) HostChannels() []output.HostChannel {
	out := make([]output.HostChannel, len(b.Channels))
	for i, c := range b.Channels {
		out[i] = output.HostChannel{Serial: c.Serial, SPI: c.SPI, SPIHz: c.SPIHz}
	}
	return out
}

func (b *Board) RenderPeriod() time.Duration {
	return time.Duration(b.RenderPeriodMs) * time.Millisecond
}

func (b *Board) StatusPeriod() time.Duration {
	return time.Duration(b.StatusPeriodMs) * time.Millisecond
}
