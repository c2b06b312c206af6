package waveform

import (
	"strings"

	"pixelstick-go/x/mathx"
)

// ColorOrder maps wire position to source offset within an RGB triple.
type ColorOrder [3]uint8

var OrderRGB = ColorOrder{0, 1, 2}

// ParseColorOrder accepts any permutation of "rgb", case-insensitive.
func ParseColorOrder(s string) (ColorOrder, bool) {
	s = strings.ToLower(s)
	if len(s) != 3 {
		return OrderRGB, false
	}
	var o ColorOrder
	var seen [3]bool
	for i := 0; i < 3; i++ {
		k := strings.IndexByte("rgb", s[i])
		if k < 0 || seen[k] {
			return OrderRGB, false
		}
		seen[k] = true
		o[i] = uint8(k)
	}
	return o, true
}

func (o ColorOrder) String() string {
	b := make([]byte, 3)
	for i, k := range o {
		b[i] = "rgb"[k]
	}
	return string(b)
}

// BrightnessLUT scales 0..255 by pct percent (clamped to 100).
func BrightnessLUT(pct uint8) *[256]byte {
	p := uint32(mathx.Min(pct, 100))
	var t [256]byte
	for i := range t {
		t[i] = byte(mathx.RoundDiv(uint32(i)*p, 100))
	}
	return &t
}
