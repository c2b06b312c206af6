//go:build rp2040

package main

import (
	"context"
	"machine"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"pixelstick-go/bus"
	"pixelstick-go/services/config"
	"pixelstick-go/services/heartbeat"
	"pixelstick-go/services/output"
	"pixelstick-go/services/pattern"
)

// Pico board: slot 0 is the pixel header on SPI0, slots 1 and 2 are the
// RS-485 transceivers on UART0 and UART1. Slot 2 can also drive pixels
// from SPI1.
var boardChannels = []output.RP2Channel{
	{UART: -1, SPI: 0, SCK: machine.GPIO18, SDO: machine.GPIO19},
	{UART: 0, TX: machine.GPIO0, RX: machine.GPIO1, SPI: -1},
	{UART: 1, TX: machine.GPIO4, RX: machine.GPIO5, SPI: 1, SCK: machine.GPIO10, SDO: machine.GPIO11},
}

func printTopicWith(prefix string, t bus.Topic) {
	print(prefix)
	print(" ")
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			print("/")
		}
		switch v := t.At(i).(type) {
		case string:
			print(v)
		case int:
			print(v)
		default:
			print("?")
		}
	}
	println()
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")
	ctx := context.Background()

	log := zerolog.New(os.Stdout).With().Str("board", "pico").Logger()

	b := bus.NewBus(4)
	uiConn := b.NewConnection("ui")

	mon := uiConn.Subscribe(bus.T("output", "state"))
	go func() {
		for m := range mon.Channel() {
			printTopicWith("[monitor] <-", m.Topic)
		}
	}()

	ports, err := output.OpenRP2Ports(boardChannels)
	if err != nil {
		println("[main] opening ports failed:", err.Error())
		ports = make([]output.Ports, len(boardChannels))
	}
	mgr := output.NewManager(ports,
		output.WithLogger(log.With().Str("svc", "output").Logger()),
		output.WithStore(&output.MemoryStore{}),
	)

	println("[main] starting services …")
	output.NewService(b.NewConnection("output"), mgr,
		output.WithServiceLogger(log.With().Str("svc", "output").Logger()),
	).Start(ctx)
	pattern.New(b.NewConnection("pattern"), mgr, log.With().Str("svc", "pattern").Logger()).Start(ctx)
	_ = heartbeat.New(log.With().Str("svc", "heartbeat").Logger()).Start(ctx, b.NewConnection("heartbeat"))

	cctx := context.WithValue(ctx, config.CtxDeviceKey, "pico")
	config.NewConfigService().Start(cctx, b.NewConnection("config"), func(err error) {
		println("[main] config:", err.Error())
	})

	for {
		printMem()
		time.Sleep(10 * time.Second)
	}
}

// printMem prints a compact snapshot of TinyGo runtime memory stats.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
