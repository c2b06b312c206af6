package types

import (
	"encoding/json"
	"strconv"
)

// ------------------------
// Output types
// ------------------------

// OutputType selects which driver variant serves a channel.
type OutputType uint8

const (
	OutputWS2811 OutputType = iota
	OutputUCS1903
	OutputSerial // generic framed serial
	OutputRenard
	OutputDMX
	OutputDisabled // must be last
	OutputTypeEnd
)

var outputTypeNames = [OutputTypeEnd]string{
	OutputWS2811:   "WS2811",
	OutputUCS1903:  "UCS1903",
	OutputSerial:   "Serial",
	OutputRenard:   "Renard",
	OutputDMX:      "DMX",
	OutputDisabled: "Disabled",
}

func (t OutputType) String() string {
	if t >= OutputTypeEnd {
		return outputTypeNames[OutputDisabled]
	}
	return outputTypeNames[t]
}

// IsSerial reports whether t is driven by a byte-oriented UART.
func (t OutputType) IsSerial() bool {
	return t == OutputSerial || t == OutputRenard || t == OutputDMX
}

// IsPixel reports whether t is driven by a pulse sequencer.
func (t OutputType) IsPixel() bool {
	return t == OutputWS2811 || t == OutputUCS1903
}

// ParseOutputType maps a name to an OutputType. Unknown names map to
// OutputDisabled.
func ParseOutputType(s string) OutputType {
	for i, n := range outputTypeNames {
		if n == s {
			return OutputType(i)
		}
	}
	return OutputDisabled
}

func (t OutputType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either the type name or its numeric index. Anything
// it does not recognise decodes as OutputDisabled rather than failing, so a
// single bad channel entry never rejects a whole document.
func (t *OutputType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = ParseOutputType(s)
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil || n < 0 || n >= int(OutputTypeEnd) {
		*t = OutputDisabled
		return nil
	}
	*t = OutputType(n)
	return nil
}
