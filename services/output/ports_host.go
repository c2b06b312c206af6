//go:build !rp2040 && !rp2350

package output

import (
	"periph.io/x/host/v3"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/platform"
)

const DefaultSPIHz = 8_000_000

// HostChannel names the devices behind one output slot on a Linux host.
// An empty Serial or SPI leaves that family unavailable on the slot.
type HostChannel struct {
	Serial string // e.g. /dev/ttyUSB0
	SPI    string // periph port name, e.g. /dev/spidev0.0
	SPIHz  uint32
}

// OpenHostPorts opens every device listed in chs. On error the ports opened
// so far are closed.
func OpenHostPorts(chs []HostChannel) ([]Ports, error) {
	ports := make([]Ports, len(chs))
	hostReady := false
	for i, c := range chs {
		if c.Serial != "" {
			ports[i].UART = platform.NewUART(platform.NewSerialLine(c.Serial))
		}
		if c.SPI == "" {
			continue
		}
		if !hostReady {
			if _, err := host.Init(); err != nil {
				closePorts(ports)
				return nil, errcode.Wrap(errcode.NotReady, "host_init", err)
			}
			hostReady = true
		}
		hz := c.SPIHz
		if hz == 0 {
			hz = DefaultSPIHz
		}
		bus, err := platform.OpenSPI(c.SPI, hz)
		if err != nil {
			closePorts(ports)
			return nil, err
		}
		ports[i].Pulse = platform.NewSPIPulser(bus, hz)
	}
	return ports, nil
}

func closePorts(ports []Ports) {
	for _, p := range ports {
		if p.UART != nil {
			_ = p.UART.Close()
		}
		if p.Pulse != nil {
			_ = p.Pulse.Close()
		}
	}
}
