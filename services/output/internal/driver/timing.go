package driver

import (
	"time"

	"pixelstick-go/services/output/internal/waveform"
	"pixelstick-go/x/mathx"
	"pixelstick-go/x/timex"
)

// MinFrameDuration is the floor of every frame period.
const MinFrameDuration = 25 * time.Millisecond

// SerialFrameDuration is the wire time of one serial frame: n intensities
// plus one start symbol plus header and footer, each bitsPerSymbol long,
// followed by gap. The result is never below MinFrameDuration.
func SerialFrameDuration(baud uint32, bitsPerSymbol uint8, n, hdr, ftr int, gap time.Duration) time.Duration {
	symbols := time.Duration(n + 1 + hdr + ftr)
	frame := timex.BitTime(baud)*time.Duration(bitsPerSymbol)*symbols + gap
	return mathx.Max(MinFrameDuration, frame)
}

// PixelFrameDuration is the wire time of n intensities of 8 bits on chip c
// followed by gap, floored at MinFrameDuration.
func PixelFrameDuration(c waveform.Chip, n int, gap time.Duration) time.Duration {
	frame := c.BitPeriod()*time.Duration(n*8) + gap
	return mathx.Max(MinFrameDuration, frame)
}
