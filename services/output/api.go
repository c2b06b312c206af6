package output

import (
	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/services/output/internal/driver"
	"pixelstick-go/services/output/internal/manager"
	"pixelstick-go/services/output/internal/store"
	"pixelstick-go/types"
)

// Re-exports for board entry points.

type (
	Manager       = manager.Manager
	ManagerOption = manager.Option
	Ports         = core.ChannelPorts
	Store         = store.Store
	FileStore     = store.File
	MemoryStore   = store.Memory
)

var (
	NewManager = manager.New
	WithLogger = manager.WithLogger
	WithClock  = manager.WithClock
	WithStore  = manager.WithStore
)

// SupportedTypes lists the output types this build can drive.
func SupportedTypes() []types.OutputType { return driver.Supported() }
