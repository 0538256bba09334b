// ABOUTME: Entry point for the Velmora live voice room
// ABOUTME: Parses CLI flags, loads config and runs the session with an optional TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cognira/velmora-go/internal/app"
	"github.com/cognira/velmora-go/internal/config"
	"github.com/cognira/velmora-go/internal/gemini"
	"github.com/cognira/velmora-go/internal/logging"
	"github.com/cognira/velmora-go/internal/ui"
	"github.com/cognira/velmora-go/internal/version"
	"github.com/cognira/velmora-go/pkg/audio"
	"github.com/cognira/velmora-go/pkg/audio/input"
	"github.com/cognira/velmora-go/pkg/audio/output"
	"github.com/cognira/velmora-go/pkg/live"
	"github.com/cognira/velmora-go/pkg/protocol"
)

var (
	configPath = flag.String("config", "", "Path to a TOML config file")
	transport  = flag.String("transport", "", "Live backend: genai or websocket (overrides config)")
	model      = flag.String("model", "", "Live model (overrides config)")
	voice      = flag.String("voice", "", "Prebuilt voice name (overrides config)")
	volume     = flag.Int("volume", -1, "Initial playback volume 0-100 (overrides config)")
	logFile    = flag.String("log-file", "", "Log file path (default velmora.log)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, start talking immediately and stream logs")
	streamLogs = flag.Bool("stream-logs", false, "Alias for -no-tui")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.UserAgent())
		return
	}

	useTUI := !(*noTUI || *streamLogs)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		File:    firstNonEmpty(*logFile, cfg.Log.File, "velmora.log"),
		Console: !useTUI,
		Debug:   cfg.Log.Debug || *debug,
	})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = closeLog() }()

	if err := run(cfg, logger, useTUI); err != nil {
		logger.Error("velmora stopped with error", zap.Error(err))
		_ = closeLog()
		log.Fatalf("%v", err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *model != "" {
		cfg.LiveModel = *model
	}
	if *voice != "" {
		cfg.Voice = *voice
	}
	if *volume >= 0 {
		cfg.Volume = *volume
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, logger *zap.Logger, useTUI bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("starting Velmora live room",
		zap.String("version", version.Version),
		zap.String("transport", cfg.Transport),
		zap.String("model", cfg.LiveModel))

	tr, err := newTransport(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// oto allows a single context per process
	device, err := output.NewOtoDevice(audio.OutputSampleRate, 1, logger)
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer func() { _ = device.Close() }()

	var prog *tea.Program
	var ctrl *ui.Controls
	notify := func(tea.Msg) {}
	if useTUI {
		ctrl = ui.NewControls()
		prog = ui.Run(ctrl, cfg.Volume)
		notify = prog.Send
	}

	room, err := app.New(app.Config{
		Session: live.Config{
			Transport: tr,
			OpenCapture: func() (input.Device, error) {
				return input.OpenMalgo(input.DefaultConfig(), logger.Named("capture"))
			},
			OpenOutput: device.Open,
			Volume:     cfg.Volume,
			Logger:     logger.Named("session"),
			OnError: func(err error) {
				logger.Warn("session error", zap.Error(err))
			},
		},
		AutoStart: !useTUI,
		Logger:    logger,
	}, notify)
	if err != nil {
		return err
	}
	defer func() { _ = room.Close() }()

	if prog != nil {
		go func() {
			if _, err := prog.Run(); err != nil {
				logger.Error("TUI failed", zap.Error(err))
			}
			cancel()
		}()
		defer prog.Quit()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	err = room.Run(ctx, ctrl)
	logger.Info("live room stopped")
	return err
}

func newTransport(ctx context.Context, cfg *config.Config, logger *zap.Logger) (live.Transport, error) {
	switch cfg.Transport {
	case config.TransportWebsocket:
		return protocol.NewTransport(protocol.Config{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.LiveModel,
			Voice:    cfg.Voice,
			Logger:   logger.Named("websocket"),
		}), nil
	default:
		gcfg, err := cfg.Gemini()
		if err != nil {
			return nil, err
		}
		client, err := gemini.New(ctx, gcfg, logger.Named("gemini"))
		if err != nil {
			return nil, err
		}
		return client.Live(), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
