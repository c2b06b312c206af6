//go:build rp2040

package output

import (
	"machine"

	"pixelstick-go/services/output/internal/platform"
)

const DefaultSPIHz = 8_000_000

// RP2Channel describes the peripherals behind one output slot. UART or SPI
// set to -1 leaves that family unavailable on the slot.
type RP2Channel struct {
	UART   int
	TX, RX machine.Pin
	SPI    int
	SCK    machine.Pin
	SDO    machine.Pin
	SPIHz  uint32
}

func OpenRP2Ports(chs []RP2Channel) ([]Ports, error) {
	ports := make([]Ports, len(chs))
	for i, c := range chs {
		if c.UART >= 0 {
			line, err := platform.NewUARTLine(c.UART, c.TX, c.RX)
			if err != nil {
				return nil, err
			}
			ports[i].UART = platform.NewUART(line)
		}
		if c.SPI >= 0 {
			hz := c.SPIHz
			if hz == 0 {
				hz = DefaultSPIHz
			}
			bus, err := platform.SPIBus(c.SPI, c.SCK, c.SDO, hz)
			if err != nil {
				return nil, err
			}
			ports[i].Pulse = platform.NewSPIPulser(bus, hz)
		}
	}
	return ports, nil
}
