// main is the application composition root. It wires concrete adapters
// (Postgres, Redis, Mapbox, HubSpot) behind ports and starts the HTTP server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"fieldroute-service/internal/adapters/cache"
	"fieldroute-service/internal/adapters/hubspot"
	"fieldroute-service/internal/adapters/mapbox"
	"fieldroute-service/internal/adapters/repositories"
	"fieldroute-service/internal/api"
	"fieldroute-service/internal/config"
	"fieldroute-service/internal/platform/db"
	"fieldroute-service/internal/ports"
	"fieldroute-service/internal/services"
	"fieldroute-service/migrations"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := migrate(database); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Repositories.
	users := repositories.NewPgUserRepository(database)
	companies := repositories.NewPgCompanyRepository(database)
	routes := repositories.NewPgRouteRepository(database)
	checkIns := repositories.NewPgCheckInRepository(database)
	syncLogs := repositories.NewPgSyncLogRepository(database)
	geocodeCache := repositories.NewPgGeocodeCache(database)

	// The active-route cache is optional; without Redis every read hits
	// Postgres, which is fine for small deployments.
	var routeCache ports.ActiveRouteCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Warn("redis unreachable, running without active-route cache", "error", err)
		} else {
			routeCache = cache.NewRedisActiveRouteCache(client, 0)
			defer client.Close()
		}
	}

	// Mapping provider. Without a token the service still runs: routes come
	// back in greedy order with no distances.
	var optimizer ports.RouteOptimizer
	var geocoder ports.Geocoder
	if cfg.MapboxToken != "" {
		mb, err := mapbox.NewClient(cfg.MapboxToken)
		if err != nil {
			slog.Error("mapbox client setup failed", "error", err)
			os.Exit(1)
		}
		optimizer = mb
		geocoder = mb
	} else {
		slog.Warn("MAPBOX_TOKEN not set, route optimization is degraded")
		optimizer = mapbox.Unavailable{}
	}

	// CRM. Without a key, check-ins stay local and the company book is
	// whatever a previous sync left behind.
	hub := hubspot.NewClient(cfg.HubSpotAPIKey)
	var visitLogger ports.VisitLogger
	var companySource ports.CompanySource
	if hub.Enabled() {
		visitLogger = hub
		companySource = hub
	} else {
		slog.Warn("HUBSPOT_API_KEY not set, CRM sync and visit logging disabled")
	}

	// Services.
	builder := &services.RouteBuilder{Directory: companies, Optimizer: optimizer, Routes: routes}
	reconciler := &services.Reconciler{
		Routes:    routes,
		Directory: companies,
		Planner:   builder,
		Cache:     routeCache,
	}
	lifecycle := &services.RouteLifecycle{Routes: routes, Cache: routeCache}
	checkInSvc := &services.CheckIns{
		Records:    checkIns,
		Companies:  companies,
		Routes:     routes,
		Reconciler: reconciler,
		CRM:        visitLogger,
	}
	summaries := &services.Summaries{Records: checkIns, Companies: companies}

	var syncer *services.CompanySyncer
	if companySource != nil {
		syncer = &services.CompanySyncer{
			Source:       companySource,
			Geocoder:     geocoder,
			Cache:        geocodeCache,
			Directory:    companies,
			Logs:         syncLogs,
			GeocodeDelay: 200 * time.Millisecond,
		}
	}

	router := api.NewRouter(api.RouterDeps{
		Users:       users,
		Companies:   companies,
		SyncLogs:    syncLogs,
		Builder:     builder,
		Lifecycle:   lifecycle,
		Reconciler:  reconciler,
		CheckIns:    checkInSvc,
		Summaries:   summaries,
		Syncer:      syncer,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if syncer != nil {
		go syncer.RunPeriodic(ctx, cfg.SyncInterval)
	}

	// Timeouts are tuned for route planning against the external mapping API.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func migrate(database *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(database, ".")
}
