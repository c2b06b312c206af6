package types

import "encoding/json"

// Output manager configuration, as exchanged with the UI and persisted by
// the store. Driver-specific fields live in ChannelConfig.Data so that each
// driver owns its own schema.

type OutputConfig struct {
	Channels []ChannelConfig `json:"om_channels"`
}

type ChannelConfig struct {
	ID        int             `json:"om_channel_id"`
	Type      OutputType      `json:"om_channel_type"`
	StartChan int             `json:"start_chan"` // reported; ignored on input
	Data      json.RawMessage `json:"om_channel_data,omitempty"`
}

// SerialConfig is the om_channel_data of DMX, Renard and Serial channels.
type SerialConfig struct {
	NumChannels int    `json:"num_chan"`
	Baud        uint32 `json:"baudrate"`
	Header      string `json:"gen_ser_hdr"`
	Footer      string `json:"gen_ser_ftr"`
}

// PixelConfig is the om_channel_data of waveform pixel channels.
type PixelConfig struct {
	NumChannels     int    `json:"num_chan"` // intensities, 3 per pixel
	DataPin         int    `json:"data_pin"`
	InterFrameGapUs uint32 `json:"interframe_gap"`
	ColorOrder      string `json:"color_order"` // permutation of "rgb"
	Brightness      uint8  `json:"brightness"`  // percent
}
