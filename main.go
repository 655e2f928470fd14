package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mandic19/Shop-Backup/client"
	"github.com/mandic19/Shop-Backup/controllers"
	"github.com/mandic19/Shop-Backup/database"
	"github.com/mandic19/Shop-Backup/jobs"
	"github.com/mandic19/Shop-Backup/repository"
	"github.com/mandic19/Shop-Backup/routes"
	"github.com/mandic19/Shop-Backup/services"
)

func main() {
	once := flag.Bool("once", false, "run a single backup and exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if err := database.Connect(logger); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close() //nolint:errcheck

	// DI chain
	catalogRepo := repository.NewGormCatalogRepository(database.DB, cfg.BatchSize, logger)
	if err := catalogRepo.EnsureLiveTables(context.Background()); err != nil {
		logger.Fatal("Failed to bootstrap live tables", zap.Error(err))
	}

	apiClient := client.New(client.Config{
		BaseURL:          cfg.ShopAPIURL,
		RateLimit:        cfg.RateLimit,
		TimeWindow:       cfg.TimeWindow,
		RetryAfterHeader: cfg.RetryAfterHeader,
	}, logger)
	shopAPI := client.NewShopAPI(apiClient)

	backupService := services.NewBackupService(catalogRepo, shopAPI, cfg.PageSize, logger)
	backupJob := jobs.NewBackupJob(backupService, cfg.JobAttempts, logger)

	if *once {
		runOnce(backupService, logger)
		return
	}

	backupController := controllers.NewBackupController(backupJob)

	r := gin.New()
	r.Use(gin.Recovery())

	// Global request-logging middleware
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
		)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "shop-backup"})
	})

	routes.RegisterBackupRoutes(r, backupController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Shop backup service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down shop backup service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}

// runOnce performs one synchronous backup and exits non-zero on failure.
func runOnce(backupService *services.BackupService, logger *zap.Logger) {
	start := time.Now()
	if err := backupService.Run(context.Background()); err != nil {
		logger.Error("Shop backup failed", zap.Error(err))
		logger.Sync() //nolint:errcheck
		database.Close()
		os.Exit(1)
	}
	logger.Info("Shop backup completed successfully",
		zap.Duration("duration", time.Since(start)),
	)
}
