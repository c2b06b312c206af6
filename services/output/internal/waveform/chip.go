// Package waveform turns intensity bytes into the logical symbol stream of
// single-wire pixel chips and builds the tick tables a pulse sequencer
// replays.
package waveform

import (
	"math"
	"time"

	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/x/mathx"
)

// GapSymbols is how many SymbolGap pulses open a frame. Each gap pulse holds
// one tenth of the interframe gap in each half, so five of them cover it.
const GapSymbols = 5

// Chip holds the documented bit timing of a pixel controller, in ns.
type Chip struct {
	Name     string
	Bit0High uint32
	Bit0Low  uint32
	Bit1High uint32
	Bit1Low  uint32
	Idle     uint32 // minimum reset/latch time
}

var (
	WS2811 = Chip{
		Name:     "WS2811",
		Bit0High: 250,
		Bit0Low:  1000,
		Bit1High: 1000,
		Bit1Low:  250,
		Idle:     300_000,
	}
	UCS1903 = Chip{
		Name:     "UCS1903",
		Bit0High: 250,
		Bit0Low:  1000,
		Bit1High: 1000,
		Bit1Low:  250,
		Idle:     24_000,
	}
)

// BitPeriod is the wire time of one data bit.
func (c Chip) BitPeriod() time.Duration {
	return time.Duration(c.Bit0High+c.Bit0Low) * time.Nanosecond
}

// IdleUs is the chip idle time rounded up to whole microseconds.
func (c Chip) IdleUs() uint32 { return mathx.CeilDiv(c.Idle, 1000) }

func ticks(ns, tickNS uint32, adj int) uint16 {
	if tickNS == 0 {
		tickNS = 1
	}
	t := int64(ns/tickNS) + int64(adj)
	return uint16(mathx.Clamp(t, 0, math.MaxUint16))
}

// BuildTable converts the chip constants into peripheral ticks. The one-bit
// high is shortened and its low lengthened by one tick to stay inside the
// tolerance window after truncation. gapNS sets the interframe gap symbol.
func BuildTable(c Chip, tickNS, gapNS uint32) core.SymbolTable {
	var t core.SymbolTable
	t[core.SymbolZero] = core.Pulse{
		Dur0: ticks(c.Bit0High, tickNS, 0), Level0: true,
		Dur1: ticks(c.Bit0Low, tickNS, 0), Level1: false,
	}
	t[core.SymbolOne] = core.Pulse{
		Dur0: ticks(c.Bit1High, tickNS, -1), Level0: true,
		Dur1: ticks(c.Bit1Low, tickNS, 1), Level1: false,
	}
	t[core.SymbolStart] = core.Pulse{Dur0: 2, Dur1: 2}
	t[core.SymbolStop] = core.Pulse{}
	SetGap(&t, tickNS, gapNS)
	return t
}

// SetGap rewrites only the interframe gap entry. The gap gets one extra tick
// before being split across GapSymbols pulses.
func SetGap(t *core.SymbolTable, tickNS, gapNS uint32) {
	half := ticks(gapNS, tickNS, 1) / 10
	t[core.SymbolGap] = core.Pulse{Dur0: half, Dur1: half}
}

