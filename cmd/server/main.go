package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/harvestledger/internal/config"
	"github.com/mamadbah2/harvestledger/internal/repository/remote"
	"github.com/mamadbah2/harvestledger/internal/repository/store"
	"github.com/mamadbah2/harvestledger/internal/scheduler"
	"github.com/mamadbah2/harvestledger/internal/server/handlers"
	"github.com/mamadbah2/harvestledger/internal/server/router"
	ledgersvc "github.com/mamadbah2/harvestledger/internal/service/ledger"
	syncsvc "github.com/mamadbah2/harvestledger/internal/service/sync"
	"github.com/mamadbah2/harvestledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	var ledgerStore store.Store
	mongoStore, err := store.NewMongoStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		// The ledger must stay usable without its database; fall back to a
		// volatile store and keep serving.
		baseLogger.Warn("mongodb unavailable, running on a non-durable in-memory store", zap.Error(err))
		ledgerStore = store.NewMemoryStore()
	} else {
		ledgerStore = mongoStore
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	}

	if granted, err := ledgerStore.RequestDurability(ctx); err != nil {
		baseLogger.Warn("durability request failed", zap.Error(err))
	} else {
		baseLogger.Info("durability requested", zap.Bool("granted", granted))
	}

	var fixedSink remote.Sink
	switch {
	case cfg.Remote.ScriptURL != "" && remote.IsScriptEndpoint(cfg.Remote.ScriptURL):
		fixedSink = remote.NewScriptClient(cfg.Remote.ScriptURL, baseLogger.Named("sink.script"))
		baseLogger.Info("apps script sink enabled")
	case cfg.Remote.ScriptURL != "":
		baseLogger.Warn("GOOGLE_SHEET_URL is not an apps script endpoint, sync disabled", zap.String("url", cfg.Remote.ScriptURL))
	case cfg.Remote.CredentialsPath != "":
		sheetsSink, err := remote.NewSheetsSink(ctx, cfg.Remote, baseLogger.Named("sink.sheets"))
		if err != nil {
			baseLogger.Warn("sheets sink init failed, sync disabled", zap.Error(err))
		} else {
			fixedSink = sheetsSink
			baseLogger.Info("sheets api sink enabled")
		}
	default:
		baseLogger.Info("no remote sink configured, ledger runs offline only")
	}

	ledgerService := ledgersvc.NewService(ledgerStore, baseLogger.Named("svc.ledger"))
	syncService := syncsvc.NewService(ledgerStore, fixedSink, baseLogger.Named("svc.sync"))
	ledgerService.OnUnsynced(syncService.Kick)
	syncService.SetOnline(true)

	ledgerHandler := handlers.NewLedgerHandler(ledgerService, baseLogger.Named("handlers.ledger"))
	syncHandler := handlers.NewSyncHandler(syncService, baseLogger.Named("handlers.sync"))
	exportHandler := handlers.NewExportHandler(ledgerService, baseLogger.Named("handlers.export"))
	engine := router.New(ledgerHandler, syncHandler, exportHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Sync.CronSchedule, syncService, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
