package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodNS returns the period in nanoseconds of a clock running at freqHz.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodNS(freqHz uint64) uint32 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint32(1_000_000_000 / freqHz)
}

// BitTime returns the duration of one bit at the given baud rate.
func BitTime(baud uint32) time.Duration {
	if baud == 0 {
		baud = 1
	}
	return time.Second / time.Duration(baud)
}
