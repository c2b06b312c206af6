package config

import (
	"bytes"
	"context"
	"encoding/json"

	"pixelstick-go/bus"
	"pixelstick-go/errcode"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig publishes every top-level key of the device config as a
// retained config/<key> message. Payloads stay raw JSON so each service
// decodes its own schema.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "missing device ID in context"}
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return &errcode.E{C: errcode.NotFound, Op: "config", Msg: "no embedded config for device: " + device}
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.InvalidPayload, "config", err)
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine. onErr, if set,
// receives the publish error.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection, onErr func(error)) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil && onErr != nil {
			onErr(err)
		}
	}()
}
