package config

// Embedded configuration, keyed by device ID (the value placed in ctx under
// CtxDeviceKey).

const cfgPico = `{
  "output": {
    "om_channels": [
      {"om_channel_id": 0, "om_channel_type": "WS2811",
       "om_channel_data": {"num_chan": 150, "data_pin": 19, "interframe_gap": 300, "color_order": "grb", "brightness": 50}},
      {"om_channel_id": 1, "om_channel_type": "DMX",
       "om_channel_data": {"num_chan": 512, "baudrate": 250000}}
    ]
  },
  "heartbeat": {
    "interval": 5
  },
  "pattern": {
    "mode": "chase",
    "period_ms": 40
  }
}`

const cfgHost = `{
  "heartbeat": {
    "interval": 10
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"host": []byte(cfgHost),
}
