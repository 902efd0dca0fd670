// Command countdown-timer runs a button-armed countdown that asserts a trigger
// output when it expires, reporting status on stdout and optionally to MQTT,
// Redis, an on-disk journal and an HTTP status page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/countdown-timer/internal/config"
	"github.com/sweeney/countdown-timer/internal/controller"
	"github.com/sweeney/countdown-timer/internal/dispatch"
	"github.com/sweeney/countdown-timer/internal/gpio"
	"github.com/sweeney/countdown-timer/internal/journal"
	"github.com/sweeney/countdown-timer/internal/logic"
	"github.com/sweeney/countdown-timer/internal/mirror"
	"github.com/sweeney/countdown-timer/internal/monotonic"
	"github.com/sweeney/countdown-timer/internal/mqtt"
	"github.com/sweeney/countdown-timer/internal/rtc"
	"github.com/sweeney/countdown-timer/internal/status"
	"github.com/sweeney/countdown-timer/internal/trigger"
	"github.com/sweeney/countdown-timer/internal/web"
)

// buildTime is the RFC 3339 build timestamp, set with
// -ldflags "-X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)".
var buildTime string

// flags holds the command line. Values only override the config file when
// the flag was given explicitly.
type flags struct {
	configPath  string
	preset      string
	poll        time.Duration
	debounce    time.Duration
	report      time.Duration
	heartbeat   time.Duration
	broker      string
	httpAddr    string
	redis       string
	journal     string
	rtcKind     string
	i2c         string
	chip        string
	printState  bool
	dumpJournal bool

	set map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{}
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.preset, "preset", config.DefaultPreset, fmt.Sprintf("Channel preset when no config file is given %v", config.PresetNames()))
	fs.DurationVar(&f.poll, "poll", 10*time.Millisecond, "Control loop period")
	fs.DurationVar(&f.debounce, "debounce", logic.DefaultDebounceWindow, "Input debounce window")
	fs.DurationVar(&f.report, "report", logic.DefaultReportInterval, "Status report interval")
	fs.DurationVar(&f.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.StringVar(&f.broker, "broker", "", "MQTT broker address (empty to disable)")
	fs.StringVar(&f.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	fs.StringVar(&f.redis, "redis", "", "Redis address for the state mirror (empty to disable)")
	fs.StringVar(&f.journal, "journal", "", "Event journal file (empty to disable)")
	fs.StringVar(&f.rtcKind, "rtc", config.RTCKindDS3231, `Wall clock: "ds3231" or "system"`)
	fs.StringVar(&f.i2c, "i2c", "/dev/i2c-1", "I2C bus device for the DS3231")
	fs.StringVar(&f.chip, "chip", gpio.DefaultChip, "GPIO chip")
	fs.BoolVar(&f.printState, "print-state", false, "Print input levels and RTC time and exit")
	fs.BoolVar(&f.dumpJournal, "dump-journal", false, "Print the event journal and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

func main() {
	f, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if f.dumpJournal {
		if err := dumpJournal(cfg.Journal, os.Stdout); err != nil {
			log.Fatalf("fatal: %v", err)
		}
		return
	}

	if err := run(cfg, f.printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadConfig builds the configuration from the file or preset, then applies
// explicitly set flags, validates and normalizes it.
func loadConfig(f *flags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.configPath != "" && f.set["preset"]:
		return nil, errors.New("-preset and -config are mutually exclusive; set preset in the file")
	case f.configPath != "":
		cfg, err = config.Load(f.configPath)
	default:
		cfg, err = config.FromPreset(f.preset)
	}
	if err != nil {
		return nil, err
	}

	for _, d := range []struct {
		name string
		val  time.Duration
		dst  *int
	}{
		{"poll", f.poll, &cfg.Timing.PollMs},
		{"debounce", f.debounce, &cfg.Timing.DebounceMs},
		{"report", f.report, &cfg.Timing.ReportMs},
		{"heartbeat", f.heartbeat, &cfg.MQTT.HeartbeatMs},
	} {
		if !f.set[d.name] {
			continue
		}
		// Checked here as well as in Validate: on 32-bit builds the
		// conversion to int would wrap first.
		if ms := d.val.Milliseconds(); ms > math.MaxUint32 {
			return nil, fmt.Errorf("-%s %v: %w: exceeds the millisecond counter", d.name, d.val, config.ErrInvalidTiming)
		}
		*d.dst = int(d.val.Milliseconds())
	}
	if f.set["broker"] {
		cfg.MQTT.Broker = f.broker
	}
	if f.set["http"] {
		cfg.HTTP = f.httpAddr
	}
	if f.set["redis"] {
		cfg.Redis.Address = f.redis
	}
	if f.set["journal"] {
		cfg.Journal = f.journal
	}
	if f.set["rtc"] {
		cfg.RTC.Kind = f.rtcKind
	}
	if f.set["i2c"] {
		cfg.RTC.I2C = f.i2c
	}
	if f.set["chip"] {
		cfg.GPIO.Chip = f.chip
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func run(cfg *config.Config, printState bool) error {
	// The RTC is required: without it every status line is undated.
	clock, err := openClock(cfg.RTC)
	if err != nil {
		return fmt.Errorf("open rtc: %w", err)
	}
	defer clock.Close()

	if fallback, err := rtc.BuildTime(buildTime); err != nil {
		log.Printf("rtc: no build time to reseed from: %v", err)
	} else if _, err := rtc.EnsureTime(clock, fallback); err != nil {
		log.Printf("rtc: %v", err)
	}

	// Initialize GPIO
	bus, err := gpio.NewReal(cfg.GPIO.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer bus.Close()

	channels := cfg.ChannelSet()
	for _, ch := range channels {
		if err := bus.ConfigureInput(ch.Pin); err != nil {
			return fmt.Errorf("configure %s: %w", ch.Name, err)
		}
	}

	// Print state mode
	if printState {
		return printInputs(os.Stdout, bus, channels, clock)
	}

	out, err := openTrigger(bus, cfg.Trigger)
	if err != nil {
		return fmt.Errorf("init trigger: %w", err)
	}
	act := trigger.New(out)
	defer act.Close()

	bootID := uuid.New().String()
	tracker := status.NewTracker(time.Now(), bootID, statusConfig(cfg), channels)
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var sinks []dispatch.Sink
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		publisher := mqtt.NewRealPublisher(cfg.MQTT.Broker, bootID)
		defer publisher.Close()
		sinks = append(sinks, dispatch.MQTT{Publisher: publisher})
		mqttStatus = publisher
	}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			log.Printf("journal: %v (continuing without)", err)
		} else {
			defer j.Close()
			sinks = append(sinks, dispatch.Journal{Appender: j})
		}
	}
	if cfg.Redis.Address != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		r, err := mirror.Dial(ctx, cfg.Redis.Address, cfg.Redis.DB, cfg.Redis.Key)
		cancel()
		if err != nil {
			log.Printf("redis: %v (continuing without)", err)
		} else {
			defer r.Close()
			sinks = append(sinks, dispatch.Mirror{Writer: r})
		}
	}
	// Registered after the sinks so it drains before they close.
	queue := dispatch.New(dispatch.DefaultCapacity, dispatch.DefaultTimeout, sinks...)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue.Close(ctx); err != nil {
			log.Printf("dispatch: %v", err)
		}
	}()

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	mono := monotonic.NewReal()
	ctrl, err := controller.New(controller.Options{
		Channels:  channels,
		Bus:       bus,
		Trigger:   act,
		Wall:      clock,
		Sink:      lineSink{w: os.Stdout},
		Debounce:  cfg.Timing.Debounce(),
		Report:    cfg.Timing.Report(),
		Heartbeat: cfg.MQTT.Heartbeat(),
		Tracker:   tracker,
		Queue:     queue,
		MQTT:      mqttStatus,
		Network:   readNetworkInfo,
	}, mono.Millis())
	if err != nil {
		return err
	}

	// Let the pull-ups settle before taking the boot-time levels.
	time.Sleep(cfg.Timing.Settle())
	if err := ctrl.Seed(); err != nil {
		log.Printf("gpio: %v", err)
	}
	ctrl.Start(mono.Millis())

	log.Printf("started: preset=%s channels=%d poll=%v debounce=%v report=%v trigger=%s boot=%s",
		cfg.Preset, len(channels), cfg.Timing.Poll(), cfg.Timing.Debounce(), cfg.Timing.Report(),
		describeTrigger(cfg.Trigger), bootID)

	ticker := time.NewTicker(cfg.Timing.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, mono, ticker.C, sigCh)
}

// runLoop steps the controller on every tick until a signal arrives, then
// shuts the countdown down with the trigger released.
func runLoop(ctrl *controller.Controller, clock monotonic.Clock, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			ctrl.Shutdown(clock.Millis(), signalName(s))
			return nil

		case <-tick:
			ctrl.Step(clock.Millis())
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func openClock(cfg config.RTCConfig) (rtc.Clock, error) {
	if cfg.Kind == config.RTCKindSystem {
		return rtc.System{}, nil
	}
	return rtc.OpenDS3231(cfg.I2C)
}

func openTrigger(bus gpio.Bus, cfg config.TriggerConfig) (trigger.Output, error) {
	if m := cfg.Modbus; m != nil {
		coil, err := trigger.NewModbusCoil(trigger.ModbusConfig{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			Coil:     m.Coil,
			Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		// A relay may have been left energized by a previous run.
		if err := coil.Set(false); err != nil {
			log.Printf("trigger: release coil at startup: %v", err)
		}
		return coil, nil
	}
	return trigger.NewPin(bus, *cfg.Pin)
}

func describeTrigger(cfg config.TriggerConfig) string {
	if m := cfg.Modbus; m != nil {
		return fmt.Sprintf("modbus:%s/%d/%d", m.Endpoint, m.UnitID, m.Coil)
	}
	if cfg.Pin != nil {
		return fmt.Sprintf("gpio:%d", *cfg.Pin)
	}
	return "none"
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		Preset:      cfg.Preset,
		PollMs:      int64(cfg.Timing.PollMs),
		DebounceMs:  int64(cfg.Timing.DebounceMs),
		ReportMs:    int64(cfg.Timing.ReportMs),
		HeartbeatMs: int64(cfg.MQTT.HeartbeatMs),
		Trigger:     describeTrigger(cfg.Trigger),
		Broker:      cfg.MQTT.Broker,
		HTTPPort:    cfg.HTTP,
	}
}

// lineSink writes status lines, one per line.
type lineSink struct {
	w io.Writer
}

func (s lineSink) Emit(line string) {
	fmt.Fprintln(s.w, line)
}

func printInputs(w io.Writer, bus gpio.Bus, channels []logic.Channel, clock rtc.Clock) error {
	now, err := clock.Now()
	if err != nil {
		fmt.Fprintf(w, "RTC: error: %v\n", err)
	} else {
		fmt.Fprintf(w, "RTC: %s\n", logic.FormatTimestamp(now))
	}
	for _, ch := range channels {
		l, err := bus.Read(ch.Pin)
		if err != nil {
			return fmt.Errorf("read %s: %w", ch.Name, err)
		}
		state := "released"
		if l == logic.Low {
			state = "pressed"
		}
		fmt.Fprintf(w, "%s (pin %d): %s %s\n", ch.Name, ch.Pin, l, state)
	}
	return nil
}

func dumpJournal(path string, w io.Writer) error {
	if path == "" {
		return errors.New("no journal configured (-journal or journal: in the config file)")
	}
	n, err := journal.Dump(path, w)
	if err != nil {
		return fmt.Errorf("dump journal: %w", err)
	}
	log.Printf("%d records", n)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
