package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/vimacontrol/internal/config"
	"github.com/mamadbah2/vimacontrol/internal/repository/sheets"
	"github.com/mamadbah2/vimacontrol/internal/scheduler"
	"github.com/mamadbah2/vimacontrol/internal/server/handlers"
	"github.com/mamadbah2/vimacontrol/internal/server/router"
	advicesvc "github.com/mamadbah2/vimacontrol/internal/service/advice"
	authsvc "github.com/mamadbah2/vimacontrol/internal/service/auth"
	herdsvc "github.com/mamadbah2/vimacontrol/internal/service/herd"
	"github.com/mamadbah2/vimacontrol/internal/store"
	memorystore "github.com/mamadbah2/vimacontrol/internal/store/memory"
	mongostore "github.com/mamadbah2/vimacontrol/internal/store/mongodb"
	redisstore "github.com/mamadbah2/vimacontrol/internal/store/redis"
	"github.com/mamadbah2/vimacontrol/pkg/clients/gemini"
	"github.com/mamadbah2/vimacontrol/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var recordStore store.Store
	switch cfg.Store.Backend {
	case config.BackendRedis:
		redisStore, err := redisstore.New(context.Background(), cfg.Store)
		if err != nil {
			baseLogger.Fatal("failed to init redis store", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				baseLogger.Error("failed to close redis connection", zap.Error(err))
			}
		}()
		recordStore = redisStore
	case config.BackendMongoDB:
		mongoStore, err := mongostore.New(context.Background(), cfg.Store.MongoURI, cfg.Store.MongoDBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb store", zap.Error(err))
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		recordStore = mongoStore
	default:
		baseLogger.Warn("using in-memory store, data is lost on restart")
		recordStore = memorystore.New()
	}

	authService := authsvc.NewService(recordStore, cfg.Auth.BcryptCost, baseLogger.Named("svc.auth"))
	herdService := herdsvc.NewService(recordStore, baseLogger.Named("svc.herd"))

	// Initialize AI client
	var aiClient gemini.Client
	if cfg.AI.GeminiKey != "" {
		aiClient = gemini.NewClient(cfg.AI.GeminiKey)
		baseLogger.Info("gemini ai client enabled")
	} else {
		baseLogger.Warn("gemini api key missing, advice requests will answer with the fallback text")
	}
	adviceService := advicesvc.NewService(aiClient, baseLogger.Named("svc.advice"))

	authHandler := handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth"))
	herdHandler := handlers.NewHerdHandler(herdService, baseLogger.Named("handlers.herd"))
	adviceHandler := handlers.NewAdviceHandler(adviceService, herdService, baseLogger.Named("handlers.advice"))
	engine := router.New(authHandler, herdHandler, adviceHandler, authService, baseLogger.Named("router"))

	// Initialize the optional snapshot export scheduler
	if cfg.SheetsEnabled() {
		exporter, err := sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		sched := scheduler.NewScheduler(cfg.Reporting, authService, herdService, exporter, baseLogger.Named("scheduler"))
		sched.Start()
		defer sched.Stop()
	} else {
		baseLogger.Info("sheets export not configured, scheduler disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
