package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bselee/Aria-sub000/config"
	"github.com/bselee/Aria-sub000/handler"
	"github.com/bselee/Aria-sub000/middleware"
	"github.com/bselee/Aria-sub000/pkg/logger"
	"github.com/bselee/Aria-sub000/recon"
	"github.com/bselee/Aria-sub000/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	activityStore, err := service.OpenActivityStore(cfg.Store.Path)
	if err != nil {
		slog.Error("failed to open activity store", "error", err)
		os.Exit(1)
	}
	defer activityStore.Close()

	archive, err := service.NewReportArchive(&cfg.Archive)
	if err != nil {
		slog.Error("failed to initialize report archive", "error", err)
		os.Exit(1)
	}
	if archive != nil {
		if err := archive.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	}

	inventorySvc := service.NewInventoryService(&cfg.Inventory)

	// Build the reconciliation engine
	approvals := recon.NewApprovalRegistry(cfg.Recon.ApprovalTTL(), recon.SystemClock())
	approvals.Start(cfg.Recon.SweepInterval())
	defer approvals.Close()

	engine := recon.New(inventorySvc, activityStore, activityStore, approvals,
		recon.ThresholdsFromConfig(&cfg.Recon))

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	reconcileHandler := handler.NewReconcileHandler(engine, archive)
	approvalHandler := handler.NewApprovalHandler(engine)
	activityHandler := handler.NewActivityHandler(activityStore)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimit(100, time.Minute))

	// Health check endpoint
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes, called by the messaging/bot layer.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/reconcile", reconcileHandler.Reconcile)
		protected.GET("/approvals", approvalHandler.List)
		protected.GET("/approvals/:id", approvalHandler.Get)
		protected.POST("/approvals/:id/approve", approvalHandler.Approve)
		protected.POST("/approvals/:id/reject", approvalHandler.Reject)
		protected.GET("/activity", activityHandler.History)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
