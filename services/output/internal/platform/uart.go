package platform

import (
	"io"
	"sync/atomic"

	"pixelstick-go/errcode"
	"pixelstick-go/services/output/internal/core"
	"pixelstick-go/x/shmring"
)

// Line is a raw serial line. Configure may be called again while the line
// is idle to change the format.
type Line interface {
	io.Writer
	Configure(f core.SerialFormat) error
	Close() error
}

const (
	uartFIFOSize = 256 // power of two
	uartChunk    = 64
)

// UART is a core.Transmitter over a Line. A per-frame goroutine acts as the
// transmit-ready context: it tops up a FIFO from the byte source and drains
// the FIFO into the line.
type UART struct {
	line  Line
	fifo  *shmring.Ring
	chunk []byte

	busy  atomic.Bool
	abort atomic.Bool
	done  chan struct{}

	writeErrs atomic.Uint32
}

var _ core.Transmitter = (*UART)(nil)

func NewUART(line Line) *UART {
	return &UART{
		line:  line,
		fifo:  shmring.New(uartFIFOSize),
		chunk: make([]byte, uartChunk),
	}
}

func (u *UART) Begin(f core.SerialFormat) error {
	if u.line == nil {
		return errcode.PortMissing
	}
	if u.busy.Load() {
		return errcode.Busy
	}
	if err := u.line.Configure(f); err != nil {
		return errcode.Wrap(errcode.Error, "uart_configure", err)
	}
	return nil
}

func (u *UART) Start(src core.ByteSource) bool {
	if u.line == nil || !u.busy.CompareAndSwap(false, true) {
		return false
	}
	u.abort.Store(false)
	done := make(chan struct{})
	u.done = done
	go u.pull(src, done)
	return true
}

func (u *UART) pull(src core.ByteSource, done chan struct{}) {
	defer func() {
		u.fifo.Discard()
		u.busy.Store(false)
		close(done)
	}()
	srcDone := false
	for {
		if u.abort.Load() {
			return
		}
		for !srcDone && u.fifo.Space() > 0 {
			b, ok := src.NextByte()
			if !ok {
				srcDone = true
				break
			}
			u.fifo.TryWriteByte(b)
		}
		if n := u.fifo.TryReadInto(u.chunk); n > 0 {
			if _, err := u.line.Write(u.chunk[:n]); err != nil {
				u.writeErrs.Add(1)
			}
		}
		if srcDone && u.fifo.Available() == 0 {
			return
		}
	}
}

func (u *UART) Busy() bool { return u.busy.Load() }

// Abort stops pulling and drops whatever is queued. The byte source is not
// called again once Abort returns.
func (u *UART) Abort() {
	if !u.busy.Load() {
		return
	}
	u.abort.Store(true)
	<-u.done
}

// WriteErrors counts failed line writes.
func (u *UART) WriteErrors() uint32 { return u.writeErrs.Load() }

func (u *UART) Close() error {
	u.Abort()
	if u.line == nil {
		return nil
	}
	return u.line.Close()
}
