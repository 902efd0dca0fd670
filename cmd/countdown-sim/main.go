// Command countdown-sim runs the countdown controller against simulated
// buttons and trigger, driven from an interactive console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/sweeney/countdown-timer/internal/config"
	"github.com/sweeney/countdown-timer/internal/controller"
	"github.com/sweeney/countdown-timer/internal/dispatch"
	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/journal"
	"github.com/sweeney/countdown-timer/internal/monotonic"
	"github.com/sweeney/countdown-timer/internal/mqtt"
	"github.com/sweeney/countdown-timer/internal/rtc"
	"github.com/sweeney/countdown-timer/internal/status"
	"github.com/sweeney/countdown-timer/internal/trigger"
)

func main() {
	preset := flag.String("preset", config.DefaultPreset, fmt.Sprintf("Channel preset %v", config.PresetNames()))
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	journalPath := flag.String("journal", "", "Event journal file (empty to disable)")
	hold := flag.Duration("hold", 150*time.Millisecond, "How long a press holds the button down")
	flag.Parse()

	cfg, err := config.FromPreset(*preset)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}
	config.Normalize(cfg)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "timer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("fatal: readline: %v", err)
	}
	defer rl.Close()
	log.SetOutput(rl.Stderr())

	if err := run(cfg, rl, *broker, *journalPath, *hold); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, rl *readline.Instance, broker, journalPath string, hold time.Duration) error {
	bus := gpio.NewFake()
	channels := cfg.ChannelSet()
	for _, ch := range channels {
		if err := bus.ConfigureInput(ch.Pin); err != nil {
			return err
		}
	}
	pin, err := trigger.NewPin(bus, *cfg.Trigger.Pin)
	if err != nil {
		return err
	}
	act := trigger.New(pin)

	bootID := uuid.New().String()
	tracker := status.NewTracker(time.Now(), bootID, status.Config{
		Preset:     cfg.Preset,
		PollMs:     int64(cfg.Timing.PollMs),
		DebounceMs: int64(cfg.Timing.DebounceMs),
		ReportMs:   int64(cfg.Timing.ReportMs),
		Trigger:    fmt.Sprintf("sim:%d", *cfg.Trigger.Pin),
		Broker:     broker,
	}, channels)

	var sinks []dispatch.Sink
	var conn mqtt.ConnectionStatus
	if broker != "" {
		p := mqtt.NewRealPublisher(broker, bootID)
		defer p.Close()
		sinks = append(sinks, dispatch.MQTT{Publisher: p})
		conn = p
	}
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			return err
		}
		defer j.Close()
		sinks = append(sinks, dispatch.Journal{Appender: j})
	}
	queue := dispatch.New(dispatch.DefaultCapacity, dispatch.DefaultTimeout, sinks...)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		queue.Close(ctx)
	}()

	clock := monotonic.NewReal()
	ctrl, err := controller.New(controller.Options{
		Channels:  channels,
		Bus:       bus,
		Trigger:   act,
		Wall:      rtc.System{},
		Sink:      writerSink{w: rl.Stdout()},
		Debounce:  cfg.Timing.Debounce(),
		Report:    cfg.Timing.Report(),
		Heartbeat: cfg.MQTT.Heartbeat(),
		Tracker:   tracker,
		Queue:     queue,
		MQTT:      conn,
	}, clock.Millis())
	if err != nil {
		return err
	}
	if err := ctrl.Seed(); err != nil {
		return err
	}
	ctrl.Start(clock.Millis())

	s := newSim(bus, ctrl, clock, rl.Stdout(), hold)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Timing.Poll())
		defer ticker.Stop()
		s.loop(ctx, ticker.C)
	}()

	s.help()
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil || s.exec(line) {
			break
		}
	}
	cancel()
	<-done

	ctrl.Shutdown(clock.Millis(), "console")
	fmt.Fprintln(rl.Stdout(), "Exiting...")
	return nil
}
