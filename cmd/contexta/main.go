// ABOUTME: Entry point for the Contexta chat room
// ABOUTME: Interactive chat with rolling context compaction and saved history
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cognira/velmora-go/internal/config"
	"github.com/cognira/velmora-go/internal/gemini"
	"github.com/cognira/velmora-go/internal/logging"
	"github.com/cognira/velmora-go/internal/version"
	"github.com/cognira/velmora-go/pkg/chat"
)

var (
	configPath  = flag.String("config", "", "Path to a TOML config file")
	chatModel   = flag.String("model", "", "Chat model (overrides config)")
	historyFile = flag.String("history", "", "History file (overrides config)")
	noSave      = flag.Bool("no-save", false, "Do not save chat history")
	logFile     = flag.String("log-file", "", "Log file path (default contexta.log)")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	showVer     = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.UserAgent())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *chatModel != "" {
		cfg.ChatModel = *chatModel
	}
	if *historyFile != "" {
		cfg.History.Path = *historyFile
	}
	if *noSave {
		cfg.History.Save = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// stdout belongs to the conversation
	logName := *logFile
	if logName == "" {
		logName = cfg.Log.File
	}
	if logName == "" {
		logName = "contexta.log"
	}
	logger, closeLog, err := logging.New(logging.Options{File: logName, Debug: cfg.Log.Debug || *debug})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gcfg, err := cfg.Gemini()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	client, err := gemini.New(ctx, gcfg, logger.Named("gemini"))
	if err != nil {
		log.Fatalf("%v", err)
	}

	assistant := &chat.Assistant{
		Responder:  client,
		Summarizer: client,
		Suggester:  client,
		Policy:     cfg.Compaction,
		Logger:     logger.Named("chat"),
	}

	library := chat.NewLibrary(assistant)
	savePath := ""
	if cfg.History.Save {
		savePath = cfg.History.Path
		if err := library.LoadFile(savePath); err != nil {
			logger.Warn("failed to load chat history", zap.Error(err))
		}
	}

	logger.Info("starting Contexta",
		zap.String("version", version.Version),
		zap.String("model", cfg.ChatModel),
		zap.Bool("save_history", cfg.History.Save))

	r := newREPL(library, os.Stdin, os.Stdout, savePath, logger)
	if err := r.run(ctx); err != nil {
		logger.Error("contexta stopped with error", zap.Error(err))
		_ = closeLog()
		log.Fatalf("%v", err)
	}
}
