//go:build !rp2040 && !rp2350

package platform

import (
	"sync"
	"time"

	"github.com/goburrow/serial"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/core"
)

// SerialLine is a host serial device. The port is reopened on every
// Configure since the host driver fixes the format at open time.
type SerialLine struct {
	Address string

	mu   sync.Mutex
	port serial.Port
}

func NewSerialLine(address string) *SerialLine { return &SerialLine{Address: address} }

func parityCode(p core.Parity) string {
	switch p {
	case core.ParityEven:
		return "E"
	case core.ParityOdd:
		return "O"
	}
	return "N"
}

func (l *SerialLine) Configure(f core.SerialFormat) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port != nil {
		_ = l.port.Close()
		l.port = nil
	}
	p, err := serial.Open(&serial.Config{
		Address:  l.Address,
		BaudRate: int(f.Baud),
		DataBits: int(f.DataBits),
		StopBits: int(f.StopBits),
		Parity:   parityCode(f.Parity),
		Timeout:  time.Second,
	})
	if err != nil {
		return err
	}
	l.port = p
	return nil
}

func (l *SerialLine) Write(b []byte) (int, error) {
	l.mu.Lock()
	p := l.port
	l.mu.Unlock()
	if p == nil {
		return 0, errcode.PortClosed
	}
	return p.Write(b)
}

func (l *SerialLine) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}

// PeriphSPI adapts a periph SPI connection to drivers.SPI.
type PeriphSPI struct {
	Conn spi.Conn
	port spi.PortCloser
}

func (s *PeriphSPI) Tx(w, r []byte) error { return s.Conn.Tx(w, r) }

func (s *PeriphSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Conn.Tx([]byte{b}, r[:])
	return r[0], err
}

func (s *PeriphSPI) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// OpenSPI opens a host SPI port by name ("" picks the first) in mode 0 at hz.
func OpenSPI(name string, hz uint32) (*PeriphSPI, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, errcode.Wrap(errcode.PortMissing, "spi_open", err)
	}
	c, err := p.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, errcode.Wrap(errcode.Error, "spi_connect", err)
	}
	return &PeriphSPI{Conn: c, port: p}, nil
}
