//go:build rp2040

package platform

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/core"
)

// UARTLine drives one of the RP2040 hardware UARTs.
type UARTLine struct {
	u          *uartx.UART
	tx, rx     machine.Pin
	configured bool
}

// NewUARTLine binds uart0 or uart1 to the given pins.
func NewUARTLine(id int, tx, rx machine.Pin) (*UARTLine, error) {
	var hw *uartx.UART
	switch id {
	case 0:
		hw = uartx.UART0
	case 1:
		hw = uartx.UART1
	default:
		return nil, errcode.PortMissing
	}
	return &UARTLine{u: hw, tx: tx, rx: rx}, nil
}

func (l *UARTLine) Configure(f core.SerialFormat) error {
	if !l.configured {
		if err := l.u.Configure(uartx.UARTConfig{BaudRate: f.Baud, TX: l.tx, RX: l.rx}); err != nil {
			return err
		}
		l.configured = true
	} else {
		l.u.SetBaudRate(f.Baud)
	}
	var par uartx.UARTParity
	switch f.Parity {
	case core.ParityEven:
		par = uartx.ParityEven
	case core.ParityOdd:
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return l.u.SetFormat(f.DataBits, f.StopBits, par)
}

func (l *UARTLine) Write(b []byte) (int, error) { return l.u.Write(b) }
func (l *UARTLine) Close() error                { return nil }

// SPIBus configures spi0 or spi1 for pulse output at hz, mode 0.
func SPIBus(id int, sck, sdo machine.Pin, hz uint32) (drivers.SPI, error) {
	var bus *machine.SPI
	switch id {
	case 0:
		bus = machine.SPI0
	case 1:
		bus = machine.SPI1
	default:
		return nil, errcode.PortMissing
	}
	if err := bus.Configure(machine.SPIConfig{
		Frequency: hz,
		SCK:       sck,
		SDO:       sdo,
		SDI:       machine.NoPin,
		Mode:      0,
	}); err != nil {
		return nil, err
	}
	return bus, nil
}
