package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/posko-pajak/api-go/config"
	"github.com/posko-pajak/api-go/metrics"
	"github.com/posko-pajak/api-go/middleware"
	"github.com/posko-pajak/api-go/repositories"
	"github.com/posko-pajak/api-go/routes"
	"github.com/posko-pajak/api-go/scheduler"
	"github.com/posko-pajak/api-go/services"
	"github.com/posko-pajak/api-go/utils"
)

func main() {
	cfg := config.Load()

	// Set up logging to stdout
	log.SetHandler(text.New(os.Stdout))
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, AttachStacktrace: true}); err != nil {
			log.WithError(err).Warn("sentry disabled")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize database
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	publicReporterID, err := config.Bootstrap(db, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to seed database")
	}

	blobs, err := config.NewBlobStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to set up blob storage")
	}

	metrics.Register()

	reportService := services.NewReportService(
		repositories.NewReportRepository(db),
		repositories.NewAttachmentRepository(db),
		blobs,
		services.Options{
			DefaultPerPage:   cfg.DefaultPageSize,
			BulkConcurrency:  cfg.BulkConcurrency,
			PublicReporterID: publicReporterID,
		},
	)

	stopScheduler, err := scheduler.Start(db, cfg.TokenPurgeSchedule)
	if err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer stopScheduler()

	// Create a new Gin router
	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stdout), gin.Recovery())
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	storageDir := ""
	if cfg.Storage.Driver == "local" {
		storageDir = cfg.Storage.Dir
	}

	// Initialize routes
	routes.SetupRoutes(r, routes.Dependencies{
		DB:         db,
		Reports:    reportService,
		Tokens:     utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		StorageDir: storageDir,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server exited")
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cfg
}
