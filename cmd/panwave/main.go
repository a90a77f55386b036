package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pmoser/panwave/pkg/audio"
	"github.com/pmoser/panwave/pkg/config"
	"github.com/pmoser/panwave/pkg/logging"
	"github.com/pmoser/panwave/pkg/session"
	"github.com/pmoser/panwave/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	configFile := flag.String("config", "", "Path to YAML config (default: ~/.config/panwave/config.yaml)")
	rate := flag.Int("rate", 0, "Sample rate in Hz (0 = device default; no resampling is performed)")
	fftSize := flag.Int("fft", 0, "FFT window size, power of two")
	hop := flag.Int("hop", 0, "Hop size in samples between windows (0 = fft/2)")
	fps := flag.Int("fps", 0, "Target redraw rate")
	dbFloor := flag.Float64("db-floor", 0, "Dynamic range floor in dB")
	dbCeil := flag.Float64("db-ceil", 0, "Dynamic range ceiling in dB")
	scheme := flag.String("colors", "", "Color scheme: thermal, green, mono")
	deviceIdx := flag.Int("device", -1, "Capture device index (skip the interactive prompt)")
	demo := flag.Bool("demo", false, "Synthesize a test signal instead of capturing")
	list := flag.Bool("list", false, "List input devices and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	logLevel := flag.String("log-level", "", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	if *showVersion {
		fmt.Println("panwave", version.Full())
		return 0
	}

	cfg := config.Default()
	cfg.TryLoadDefault()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "panwave: %v\n", err)
			return 1
		}
	}
	applyFlags(cfg, *rate, *fftSize, *hop, *fps, *dbFloor, *dbCeil, *scheme, *logLevel, *logFormat)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "panwave: invalid config: %v\n", err)
		return 1
	}

	if err := logging.Setup(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "panwave: %v\n", err)
		return 1
	}

	if *demo {
		return runDemo(cfg)
	}

	// Overlap the host-API scan with the user reading the prompt.
	audio.PreInit()

	backend, err := audio.NewBackend()
	if err != nil {
		slog.Error("audio subsystem init failed", "err", err)
		return 1
	}
	defer func() { _ = backend.Close() }()

	devices, err := audio.ListInputDevices(backend)
	if err != nil {
		slog.Error("device enumeration failed", "err", err)
		return 1
	}

	if *list {
		for i, d := range devices {
			fmt.Printf("%d. %s (%d Hz)\n", i, d.Name, d.SampleRate)
		}
		return 0
	}

	idx := *deviceIdx
	if idx >= 0 {
		if idx >= len(devices) {
			slog.Error("device index out of range", "index", idx, "devices", len(devices))
			return 1
		}
	} else {
		idx, err = session.SelectDevice(os.Stdin, os.Stdout, devices)
		if err != nil {
			slog.Error("device selection failed", "err", err)
			return 1
		}
	}
	device := devices[idx]

	sampleRate := cfg.Audio.SampleRate
	if sampleRate == 0 {
		sampleRate = device.SampleRate
	}
	open := func(deliver audio.DeliverFunc) (session.Source, error) {
		return audio.Open(backend, device, sampleRate, cfg.Audio.FramesPerBuffer, deliver)
	}

	sess := session.New(cfg, device, open, false)
	if err := sess.Run(context.Background()); err != nil {
		slog.Error("session failed", "err", err)
		return 1
	}
	return 0
}

func runDemo(cfg *config.Config) int {
	sampleRate := cfg.Audio.SampleRate
	if sampleRate == 0 {
		sampleRate = 44100
	}
	device := audio.Device{Name: "synthetic", SampleRate: sampleRate}
	open := func(deliver audio.DeliverFunc) (session.Source, error) {
		syn := audio.NewSynth(sampleRate, cfg.Audio.FramesPerBuffer, deliver)
		syn.Start()
		return syn, nil
	}
	sess := session.New(cfg, device, open, true)
	if err := sess.Run(context.Background()); err != nil {
		slog.Error("session failed", "err", err)
		return 1
	}
	return 0
}

func applyFlags(cfg *config.Config, rate, fft, hop, fps int, dbFloor, dbCeil float64, scheme, logLevel, logFormat string) {
	if rate > 0 {
		cfg.Audio.SampleRate = rate
	}
	if fft > 0 {
		cfg.Audio.FFTSize = fft
	}
	if hop > 0 {
		cfg.Audio.HopSize = hop
	}
	if fps > 0 {
		cfg.Visual.FPS = fps
	}
	if dbFloor != 0 {
		cfg.Visual.DBFloor = dbFloor
	}
	if dbCeil != 0 {
		cfg.Visual.DBCeil = dbCeil
	}
	if scheme != "" {
		cfg.Visual.ColorScheme = scheme
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
}
