package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenflow/lumenflow-backend/internal/app"
	dataagg "github.com/lumenflow/lumenflow-backend/internal/data/aggregates"
	"github.com/lumenflow/lumenflow-backend/internal/data/cache"
	"github.com/lumenflow/lumenflow-backend/internal/data/db"
	"github.com/lumenflow/lumenflow-backend/internal/data/repos"
	"github.com/lumenflow/lumenflow-backend/internal/handlers"
	"github.com/lumenflow/lumenflow-backend/internal/middleware"
	"github.com/lumenflow/lumenflow-backend/internal/observability"
	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
	"github.com/lumenflow/lumenflow-backend/internal/server"
	"github.com/lumenflow/lumenflow-backend/internal/services"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Observability
	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	metrics.StartPGStatsCollector(ctx, log, thePG)

	// Redis (optional)
	membershipCache, err := cache.NewMembershipCache(log)
	if err != nil {
		log.Warn("Membership cache disabled", "error", err)
		membershipCache = nil
	}
	metrics.StartRedisCollector(ctx, membershipCache.Client())

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	teamRepo := repos.NewTeamRepo(thePG, log)
	teamMemberRepo := repos.NewTeamMemberRepo(thePG, log)
	streamRepo := repos.NewStreamRepo(thePG, log)
	workItemRepo := repos.NewWorkItemRepo(thePG, log)
	contributorRepo := repos.NewContributorRepo(thePG, log)
	timeEntryRepo := repos.NewTimeEntryRepo(thePG, log)

	// Lifecycle engine
	log.Info("Setting up lifecycle engine...")
	engine := dataagg.NewWorkItemAggregate(dataagg.WorkItemAggregateDeps{
		Base: dataagg.BaseDeps{
			DB:       thePG,
			Log:      log,
			Runner:   dataagg.NewGormTxRunner(thePG),
			Hooks:    dataagg.NewObservabilityHooks(metrics),
			CASGuard: dataagg.NewCASGuard(thePG),
		},
		Streams:      streamRepo,
		Teams:        teamRepo,
		Members:      teamMemberRepo,
		WorkItems:    workItemRepo,
		Contributors: contributorRepo,
		TimeEntries:  timeEntryRepo,
	})

	// Services
	log.Info("Setting up services...")
	userService := services.NewUserService(log, dataagg.NewGormTxRunner(thePG), userRepo)
	membershipService := services.NewMembershipService(log, teamMemberRepo, membershipCache)
	provisionService := services.NewProvisionService(
		log,
		dataagg.NewGormTxRunner(thePG),
		teamRepo,
		teamMemberRepo,
		streamRepo,
		membershipService,
		membershipCache,
	)
	workItemService := services.NewWorkItemService(
		log,
		engine,
		membershipService,
		metrics,
		streamRepo,
		workItemRepo,
		contributorRepo,
		timeEntryRepo,
	)

	// Handlers + middleware
	log.Info("Setting up handlers...")
	teamHandler := handlers.NewTeamHandler(log, provisionService)
	streamHandler := handlers.NewStreamHandler(log, workItemService)
	workItemHandler := handlers.NewWorkItemHandler(log, workItemService)
	authMiddleware := middleware.NewAuthMiddleware(log, cfg.JWTSecretKey, userService)

	router := server.NewRouter(server.RouterConfig{
		Mode:            cfg.Mode,
		ServiceName:     cfg.ServiceName,
		AllowedOrigins:  cfg.AllowedOrigins,
		Metrics:         metrics,
		AuthMiddleware:  authMiddleware,
		TeamHandler:     teamHandler,
		StreamHandler:   streamHandler,
		WorkItemHandler: workItemHandler,
		RequestLog:      middleware.RequestLog(log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
	if otelShutdown != nil {
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("Otel shutdown failed", "error", err)
		}
	}
	if err := membershipCache.Close(); err != nil {
		log.Warn("Redis close failed", "error", err)
	}
}
