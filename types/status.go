package types

// ------------------------
// Output status (retained on output/status)
// ------------------------

type OutputStatus struct {
	Channels []ChannelStatus `json:"channels"`
	TS       int64           `json:"ts_ms"`
}

// ChannelStatus counters are diagnostic only.
type ChannelStatus struct {
	ID                 int        `json:"id"`
	Type               OutputType `json:"type"`
	Driver             string     `json:"driver"`
	NumChannels        int        `json:"num_chan"`
	Cursor             int        `json:"cursor"`
	BytesSent          uint32     `json:"bytes_sent"`
	BytesSentLastFrame uint32     `json:"bytes_sent_last_frame"`
	FrameStarts        uint32     `json:"frame_starts"`
	FrameEnds          uint32     `json:"frame_ends"`
	AbortedFrames      uint32     `json:"aborted_frames"`
	FrameMinUs         uint32     `json:"frame_min_us"`
}

// OutputState is the service-level state (retained on output/state).
type OutputState struct {
	Level  string `json:"level"`  // "idle", "ready", "stopped"
	Status string `json:"status"` // short code
	TS     int64  `json:"ts_ms"`
}

// Generic replies

type OKReply struct {
	OK     bool `json:"ok"`
	Result any  `json:"result,omitempty"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// SetConfigReply answers output/control/set_config. Valid is false when
// some values had to be corrected; Config holds what is in use.
type SetConfigReply struct {
	OK     bool         `json:"ok"`
	Valid  bool         `json:"valid"`
	Config OutputConfig `json:"config"`
}
