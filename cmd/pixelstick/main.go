//go:build !rp2040 && !rp2350

// Command pixelstick runs the output manager on a Linux host with USB serial
// adapters and spidev pixel outputs.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pixelstick-go/bus"
	"pixelstick-go/services/config"
	"pixelstick-go/services/heartbeat"
	"pixelstick-go/services/output"
	"pixelstick-go/services/pattern"
	"pixelstick-go/x/strx"
)

func main() {
	var (
		boardPath = flag.String("board", "board.yaml", "path to board.yaml")
		level     = flag.String("log-level", "", "override board log_level")
		listTypes = flag.Bool("types", false, "print supported output types and exit")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if *listTypes {
		for _, t := range output.SupportedTypes() {
			log.Info().Stringer("type", t).Msg("supported")
		}
		return
	}

	bd, err := LoadBoard(*boardPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *boardPath).Msg("board load failed")
	}
	lvl, err := zerolog.ParseLevel(strx.Coalesce(*level, bd.LogLevel))
	if err != nil {
		log.Warn().Err(err).Msg("bad log level; using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ports, err := output.OpenHostPorts(bd.HostChannels())
	if err != nil {
		log.Fatal().Err(err).Msg("opening output ports failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	mgr := output.NewManager(ports,
		output.WithLogger(log.With().Str("svc", "output").Logger()),
		output.WithStore(output.FileStore{Path: bd.ConfigPath}),
	)

	done := make(chan struct{})
	svc := output.NewService(b.NewConnection("output"), mgr,
		output.WithServiceLogger(log.With().Str("svc", "output").Logger()),
		output.WithPeriods(bd.RenderPeriod(), bd.StatusPeriod()),
	)
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	pattern.New(b.NewConnection("pattern"), mgr, log.With().Str("svc", "pattern").Logger()).Start(ctx)
	_ = heartbeat.New(log.With().Str("svc", "heartbeat").Logger()).Start(ctx, b.NewConnection("heartbeat"))

	cctx := context.WithValue(ctx, config.CtxDeviceKey, bd.Device)
	config.NewConfigService().Start(cctx, b.NewConnection("config"), func(err error) {
		log.Warn().Err(err).Str("device", bd.Device).Msg("no embedded config")
	})

	if bd.Pattern != nil {
		conn := b.NewConnection("board")
		conn.Publish(conn.NewMessage(bus.T("config", "pattern"), pattern.Config{
			Mode:     bd.Pattern.Mode,
			PeriodMs: bd.Pattern.PeriodMs,
			Level:    bd.Pattern.Level,
		}, true))
	}

	log.Info().Int("channels", mgr.NumChannels()).Str("store", bd.ConfigPath).Msg("pixelstick running")

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")
	cancel()
	<-done
}

