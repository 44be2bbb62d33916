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

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/config"
	dbpkg "github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/ratelimit"
	"github.com/BruksfildServices01/jobsite-manager/internal/routes"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
	"github.com/BruksfildServices01/jobsite-manager/internal/timezone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)

	if !timezone.IsValid(cfg.Timezone) {
		log.WithField("timezone", cfg.Timezone).Warn("unknown APP_TIMEZONE, falling back to UTC")
	}

	pool, err := dbpkg.Open(cfg.Database)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("failed to open database")
	}

	var store storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		store = storage.NewS3Store(cfg.Storage)
	} else {
		log.Warn("STORAGE_BUCKET not set, floorplans are kept in memory")
		store = storage.NewMemoryStore(cfg.Storage.PublicBaseURL)
	}

	limiter, redisClient, err := ratelimit.NewFromURL(cfg.Redis.URL)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("failed to configure rate limiter")
	}

	auditDispatcher := audit.NewDispatcher(audit.New(pool.Gorm()), log)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, routes.Deps{
		Config:   cfg,
		Pool:     pool,
		Sessions: auth.NewSessions(cfg.Security.SessionSecret, cfg.Security.SessionTTL),
		Tokens:   auth.NewTokens(cfg.Security.TokenSecret),
		Limiter:  limiter,
		Mailer:   mailer.New(cfg.SMTP, log),
		Store:    store,
		Audit:    auditDispatcher,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error", err.Error()).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("server shutdown")
	}

	auditDispatcher.Close()

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := pool.Close(); err != nil {
		log.WithField("error", err.Error()).Error("closing database pool")
	}
}
