package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomlord1122/smart-todo/internal/analysis"
	"github.com/Tomlord1122/smart-todo/internal/auth"
	"github.com/Tomlord1122/smart-todo/internal/config"
	"github.com/Tomlord1122/smart-todo/internal/database"
	"github.com/Tomlord1122/smart-todo/internal/llm"
	"github.com/Tomlord1122/smart-todo/internal/localstore"
	"github.com/Tomlord1122/smart-todo/internal/logger"
	"github.com/Tomlord1122/smart-todo/internal/ratelimit"
	"github.com/Tomlord1122/smart-todo/internal/refresh"
	"github.com/Tomlord1122/smart-todo/internal/repository"
	"github.com/Tomlord1122/smart-todo/internal/search"
	"github.com/Tomlord1122/smart-todo/internal/server"
	"github.com/Tomlord1122/smart-todo/internal/service"
	"github.com/Tomlord1122/smart-todo/internal/validation"
	"github.com/Tomlord1122/smart-todo/internal/vision"
)

// gracefulShutdown waits for an interrupt signal or for parent to end, then
// drains the server and closes every resource.
func gracefulShutdown(parent context.Context, apiServer *http.Server, log *slog.Logger, closers []namedCloser, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the requests it is currently handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// Close in reverse order of construction.
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.Close(); err != nil {
			log.Error("error closing "+c.name, "error", err)
			continue
		}
		log.Info(c.name + " closed")
	}

	log.Info("server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

type namedCloser struct {
	name string
	io.Closer
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       cfg.Logger.Level,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("graceful shutdown complete")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []namedCloser
	serving := false
	defer func() {
		if serving {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	// 1. Database
	dbService, err := database.New(cfg.Database, cfg.App.Environment == "development", log)
	if err != nil {
		return err
	}
	closers = append(closers, namedCloser{"database connection pool", dbService})

	log.Info("running database migrations")
	if err := dbService.Migrate(); err != nil {
		return err
	}

	// 2. Repositories
	gormDB := dbService.GetDB()
	todoRepo := repository.NewGormTodoRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	listRepo := repository.NewGormSharedListRepository(gormDB)

	// 3. Local state: sessions, drafts, preferences and the suggestion index
	store, err := localstore.Open(cfg.Store.Path, log)
	if err != nil {
		return err
	}
	closers = append(closers, namedCloser{"local store", store})

	index, err := search.New(log)
	if err != nil {
		return err
	}
	closers = append(closers, namedCloser{"suggestion index", index})

	// 4. Models
	var textModel, visionModel, visionAltModel llm.Model
	if cfg.AI.Enabled {
		client, err := llm.NewRuntimeClient(ctx, cfg.AI.Region)
		if err != nil {
			return err
		}
		textModel = llm.NewBedrock(client, cfg.AI.TextModel)
		visionModel = llm.NewBedrock(client, cfg.AI.VisionModel)
		if cfg.AI.VisionAltModel != "" {
			visionAltModel = llm.NewBedrock(client, cfg.AI.VisionAltModel)
		}
		log.Info("hosted models enabled", "region", cfg.AI.Region, "text_model", cfg.AI.TextModel, "vision_model", cfg.AI.VisionModel)
	} else {
		log.Warn("hosted models disabled, using local heuristics only")
	}

	analyzer := analysis.New(textModel, log)

	stages := []vision.Stage{}
	if visionModel != nil {
		stages = append(stages, vision.Stage{Name: "primary", Extractor: vision.NewPrimaryExtractor(visionModel)})
	}
	if visionAltModel != nil {
		stages = append(stages, vision.Stage{Name: "alternate", Extractor: vision.NewAlternateExtractor(visionAltModel)})
	}
	if cfg.AI.TesseractPath != "" {
		ocr := vision.NewTesseract(cfg.AI.TesseractPath, log)
		if err := ocr.Init(ctx); err != nil {
			log.Warn("local OCR unavailable", "path", cfg.AI.TesseractPath, "error", err)
		} else {
			stages = append(stages, vision.Stage{Name: "tesseract", Extractor: ocr})
			closers = append(closers, namedCloser{"local OCR", ocr})
		}
	}
	extractor := vision.NewChain(log, stages...)
	if extractor.Len() == 0 {
		log.Warn("no text extractors configured, image uploads will fail")
	}

	// 5. Services
	tokens, err := auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	if cfg.Auth.TokenKey == "" {
		log.Warn("TOKEN_KEY not set, sessions will not survive a restart")
	}

	validate := validation.New()
	identityService := service.NewIdentityService(userRepo, tokens, store, store, cfg.Auth.IsAdminEmail, validate, log)
	listService := service.NewSharedListService(listRepo, userRepo, validate, log)
	todoService := service.NewTodoService(todoRepo, listService, analyzer, index, validate, log)
	analysisService := service.NewAnalysisService(analyzer, validate)
	visionService := service.NewVisionService(extractor, analyzer, store, todoService, validate, log)

	if err := todoService.RebuildIndex(ctx); err != nil {
		log.Warn("failed to build suggestion index", "error", err)
	}

	// 6. Background session refresh and AI throttling
	refresher := refresh.New(store, userRepo, cfg.Session.RefreshInterval, cfg.Session.TypingDebounce, log)
	refresher.Start(ctx)
	closers = append(closers, namedCloser{"session refresher", closeFunc(func() error {
		refresher.Stop()
		return nil
	})})

	limiter := ratelimit.New(cfg.AI.RateLimitRPS, cfg.AI.RateLimitBurst)
	closers = append(closers, namedCloser{"rate limiter", closeFunc(func() error {
		limiter.Stop()
		return nil
	})})

	// 7. HTTP server
	apiServer := server.NewHTTPServer(cfg.Server, server.Deps{
		DB:       dbService,
		Identity: identityService,
		Todos:    todoService,
		Lists:    listService,
		Analysis: analysisService,
		Vision:   visionService,
		Activity: refresher,
		Limiter:  limiter,
		Log:      log,
	})

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)
	shutdownCtx, abort := context.WithCancel(ctx)
	defer abort()
	// From here on the shutdown routine owns the closers.
	serving = true
	go gracefulShutdown(shutdownCtx, apiServer, log, closers, done)

	log.Info("starting server", "addr", apiServer.Addr, "static_dir", cfg.Server.StaticDir)
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		// e.g. the port is taken: release everything before reporting
		abort()
		<-done
		return err
	}

	// Wait for the graceful shutdown to complete
	<-done
	return nil
}
