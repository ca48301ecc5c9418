// Package main provides the entry point for the Shortr URL shortener service.
//
//	@title			Shortr API
//	@version		1.0.0
//	@description	URL shortener with per-link visit counters and visitor geolocation.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Authorization header. Format: "Bearer {token}"
package main

import (
	"Shortr-Backend/internal/auth"
	"Shortr-Backend/internal/config"
	"Shortr-Backend/internal/database"
	"Shortr-Backend/internal/geo"
	httpHandler "Shortr-Backend/internal/handler/http"
	"Shortr-Backend/internal/repository/postgres"
	"Shortr-Backend/internal/service"
	"Shortr-Backend/internal/visits"
	"Shortr-Backend/pkg/logger"
	"Shortr-Backend/pkg/useragent"
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting Shortr backend", zap.String("env", cfg.Env))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// User-Agent parser is optional; visit records fall back to a
	// keyword-based device classification without it.
	if err := useragent.InitGlobalParser("assets/regexes.yaml", log); err != nil {
		log.Warn("failed to initialize User-Agent parser, using fallback", zap.Error(err))
	}

	storage := postgres.New(db, log)

	// Visit recording pipeline: bounded queue, background workers,
	// geo enrichment decoupled from the redirect path.
	geoClient := geo.NewClient(&cfg.Geo, log)
	visitProcessor := visits.NewProcessor(storage, geoClient, log, visits.Config{
		WorkerCount:     cfg.Visits.WorkerCount,
		BufferSize:      cfg.Visits.BufferSize,
		RetryAttempts:   cfg.Visits.RetryAttempts,
		RetryDelay:      cfg.Visits.RetryDelay,
		ShutdownTimeout: cfg.Visits.ShutdownTimeout,
		LookupTimeout:   cfg.Geo.Timeout,
	})
	if err := visitProcessor.Start(); err != nil {
		log.Fatal("failed to start visit processor", zap.Error(err))
	}

	linkService := service.NewLinkService(storage, visitProcessor, log)
	statsService := service.NewStatsService(storage, log)

	jwtService := auth.NewJWTService(&cfg.JWT)
	passwordService := auth.NewPasswordService()

	httpAPIServer := httpHandler.NewServer(
		storage,
		linkService,
		statsService,
		jwtService,
		passwordService,
		log,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      httpAPIServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down Shortr backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop accepting requests first, then drain the visit queue so
	// in-flight increments are not lost.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := visitProcessor.Stop(); err != nil {
		log.Error("failed to stop visit processor", zap.Error(err))
	}
}
