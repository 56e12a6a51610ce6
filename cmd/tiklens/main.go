package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/tiklens/internal/backend"
	"github.com/timmy/tiklens/internal/clock"
	"github.com/timmy/tiklens/internal/config"
	"github.com/timmy/tiklens/internal/dialog"
	"github.com/timmy/tiklens/internal/export"
	"github.com/timmy/tiklens/internal/logger"
	"github.com/timmy/tiklens/internal/render"
	"github.com/timmy/tiklens/internal/repository"
	"github.com/timmy/tiklens/internal/service"
	"github.com/timmy/tiklens/internal/storage"
	"github.com/timmy/tiklens/internal/stream"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "tiklens",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	subjectID := flag.String("subject", "", "Subject ID to collect comments for")
	subjectURL := flag.String("url", "", "Optional subject URL")
	instruction := flag.String("instruction", "", "Custom analysis instruction (overrides saved preference)")
	plain := flag.Bool("plain", false, "Disable terminal colors")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *subjectID == "" {
		appLogger.Fatal("The -subject flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"subject":     *subjectID,
		"backend_url": cfg.Backend.BaseURL,
	}).Info("Starting analysis session")

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	prefRepo := repository.NewPreferenceRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize backend client
	client := backend.NewClient(&backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	})

	// Initialize presentation
	terminal := render.NewTerminal(os.Stdout, !*plain)
	machine := dialog.NewMachine(terminal)
	player := stream.NewPlayer(nil, stream.Pacing{
		Base:       cfg.Typing.Base,
		Space:      cfg.Typing.Space,
		Comma:      cfg.Typing.Comma,
		Sentence:   cfg.Typing.Sentence,
		BlockPause: cfg.Typing.BlockPause,
	})

	// Initialize orchestrator
	orch := service.NewOrchestrator(
		client,
		machine,
		player,
		terminal.Sink(),
		clock.System(),
		service.OrchestratorConfig{
			PollInterval: cfg.Polling.Interval,
			Preroll:      cfg.Polling.Preroll,
		},
		appLogger,
	).WithPreferences(prefRepo).WithSessions(sessionRepo)

	// Attach the report exporter when enabled
	if cfg.Export.Enabled {
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize report storage")
		}
		orch = orch.WithExporter(export.NewReportExporter(store, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the session on interrupt; a second signal kills the process
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Interrupt received, cancelling session")
		orch.Cancel()
		cancel()
		<-quit
		os.Exit(1)
	}()

	// Flag beats config; an empty value falls through to the saved preference.
	customInstruction := *instruction
	if customInstruction == "" {
		customInstruction = cfg.Analysis.CustomInstruction
	}

	orch.Run(ctx, service.StartParams{
		SubjectID:         *subjectID,
		SubjectURL:        *subjectURL,
		CustomInstruction: customInstruction,
	})
}
