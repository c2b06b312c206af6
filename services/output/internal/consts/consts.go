// services/output/internal/consts/consts.go
package consts

import "time"

// Topic tokens
const (
	TokConfig  = "config"
	TokOutput  = "output"
	TokControl = "control"
	TokStatus  = "status"
	TokState   = "state"
)

// Control verbs
const (
	CtrlGetConfig = "get_config"
	CtrlSetConfig = "set_config"
	CtrlGetStatus = "get_status"
	CtrlSave      = "save"
)

// Service state levels
const (
	LevelIdle     = "idle"
	LevelReady    = "ready"
	LevelDegraded = "degraded"
	LevelStopped  = "stopped"
)

const (
	DefaultRenderPeriod = 5 * time.Millisecond
	DefaultStatusPeriod = time.Second
)
