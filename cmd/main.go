package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/config"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/database"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/httpapi"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/logging"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/notify"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/payment"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/repository"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.App.LogLevel, cfg.App.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting plataforma-viagens backend",
		zap.String("environment", cfg.App.Environment))

	// Initialize database connections
	db, err := database.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connections", zap.Error(err))
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("failed to apply schema", zap.Error(err))
	}

	// Repositories over the shared connection pool
	partnerRepo := repository.NewPartnerRepository(db.Postgres)
	userRepo := repository.NewUserRepository(db.Postgres)
	promotionRepo := repository.NewPromotionRepository(db.Postgres)

	// External collaborators
	gateway := payment.NewClient(cfg.MercadoPago)
	notifier := notify.NewAdminNotifier(
		notify.NewWhatsAppClient(cfg.Twilio), cfg.Twilio.AdminTo,
		notify.NewTelegramClient(cfg.Telegram), cfg.Telegram.ChatID,
		logger,
	)

	// Workflow services
	allocator := service.NewIDAllocator(partnerRepo, cfg.Approval.IDAttempts)
	partnerService := service.NewPartnerService(partnerRepo, allocator, notifier, cfg.Admin.Email, logger)
	promotionService := service.NewPromotionService(promotionRepo,
		cfg.Promotion.CounterName, cfg.Promotion.MaxSlots, cfg.Promotion.Plan, cfg.Promotion.Months, logger)
	paymentService := service.NewPaymentService(gateway, partnerRepo,
		cfg.MercadoPago.SiteURL, cfg.MercadoPago.NotificationURL, logger)
	statsService := service.NewStatsService(userRepo, partnerRepo, cfg.Admin.Email, logger)

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register the callable, event and webhook routes
	api := httpapi.NewHandler(partnerService, promotionService, paymentService, statsService, logger)
	api.Register(mux)

	// Add health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.WriteHeader(http.StatusOK)
		response := fmt.Sprintf(`{"status":"ok","service":"plataforma-viagens","hostname":"%s"}`, hostname)
		w.Write([]byte(response))
	})

	// Add database health check endpoint
	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Postgres.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"postgres unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","postgres":"connected"}`))
	})

	// Add Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Create server with configuration optimized for bursty invocations
	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second, // Keep connections alive longer
		MaxHeaderBytes: 1 << 20,           // 1MB
		// Use h2c so we can serve HTTP/2 without TLS
		Handler: h2c.NewHandler(mux, &http2.Server{
			MaxConcurrentStreams: 1000, // Allow more concurrent streams
		}),
	}

	// Start server in goroutine
	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
