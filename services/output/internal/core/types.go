// services/output/internal/core/types.go
package core

// ---- Byte-oriented transmit peripheral (UART) ----

// ByteSource is pulled once per byte by a Transmitter from its transmit-ready
// context. NextByte must not block, allocate or perform I/O. ok=false means
// the frame is complete and nothing was produced.
type ByteSource interface {
	NextByte() (b byte, ok bool)
}

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// SerialFormat is the line configuration a serial driver asks for.
type SerialFormat struct {
	Baud     uint32
	DataBits uint8
	StopBits uint8
	Parity   Parity
}

// Transmitter is a pull-based UART. Begin binds and configures the line but
// sends nothing; it may be called again to change the format while idle.
// Start arms the transmit-ready path, which pulls from src until src reports
// ok=false; it returns false if a frame is still in flight. Busy stays true
// until the last pulled byte has left the FIFO. Abort stops pulling, drops
// anything queued and returns only once src will not be called again.
type Transmitter interface {
	Begin(f SerialFormat) error
	Start(src ByteSource) bool
	Busy() bool
	Abort()
	Close() error
}

// ---- Pulse sequencer (RMT / DMA / SPI-encoded waveform) ----

// Symbol is a logical waveform marker.
type Symbol uint8

const (
	SymbolZero Symbol = iota
	SymbolOne
	SymbolGap // interframe gap
	SymbolStart
	SymbolStop
	NumSymbols
)

func (s Symbol) String() string {
	switch s {
	case SymbolZero:
		return "zero"
	case SymbolOne:
		return "one"
	case SymbolGap:
		return "gap"
	case SymbolStart:
		return "start"
	case SymbolStop:
		return "stop"
	}
	return "invalid"
}

// Pulse is a native two-level pulse, durations in peripheral ticks.
type Pulse struct {
	Dur0   uint16
	Level0 bool
	Dur1   uint16
	Level1 bool
}

// Ticks is the total length of the pulse.
func (p Pulse) Ticks() uint32 { return uint32(p.Dur0) + uint32(p.Dur1) }

// SymbolTable maps every Symbol to its pulse. It is computed at
// configuration time and must not change while a frame is running.
type SymbolTable [NumSymbols]Pulse

// SymbolSource yields the next logical symbol of the frame. Same rules as
// ByteSource: no blocking, no allocation.
type SymbolSource interface {
	NextSymbol() (s Symbol, ok bool)
}

type PulseConfig struct {
	Pin       int
	IdleLevel bool
}

// PulseSequencer free-runs a whole frame once submitted. Submit returns false
// (and does nothing) while a previous frame is still running. Busy is the
// completion flag polled by the foreground. Abort returns only once the
// sequencer has stopped reading the table and source.
type PulseSequencer interface {
	Begin(cfg PulseConfig) error
	TickNS() uint32
	Submit(table *SymbolTable, src SymbolSource) bool
	Busy() bool
	Abort()
	Close() error
}

// ---- Per-channel hardware binding ----

// ChannelPorts lists the peripherals a channel slot can drive. A nil entry
// means the slot cannot serve that family of output types.
type ChannelPorts struct {
	UART  Transmitter
	Pulse PulseSequencer
}
