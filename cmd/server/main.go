package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harborview-hotels/service-reservation/internal/application"
	"github.com/harborview-hotels/service-reservation/internal/config"
	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	"github.com/harborview-hotels/service-reservation/internal/events/consumer"
	"github.com/harborview-hotels/service-reservation/internal/handler"
	"github.com/harborview-hotels/service-reservation/internal/payments"
	"github.com/harborview-hotels/service-reservation/internal/repository"
	"github.com/harborview-hotels/service-reservation/pkg/clock"
	"github.com/harborview-hotels/service-reservation/pkg/database"
	"github.com/harborview-hotels/service-reservation/pkg/health"
	"github.com/harborview-hotels/service-reservation/pkg/kafka"
	"github.com/harborview-hotels/service-reservation/pkg/logger"
	"github.com/harborview-hotels/service-reservation/pkg/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-reservation")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-reservation",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.RoomModel{},
			&repository.ReservationModel{},
			&repository.RoomLockModel{},
			&repository.PaymentModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := cfg.DBConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	reservationRepo := repository.NewGormReservationRepository(db)
	lockRepo := repository.NewGormRoomLockRepository(db)
	roomRepo := repository.NewGormRoomRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)

	// Initialize payment gateway
	gateway := payments.NewRazorpayGateway(
		cfg.RazorpayConfig.KeyID,
		cfg.RazorpayConfig.KeySecret,
		log,
	)

	// Initialize application services
	clk := clock.Real{}
	lockManager := application.NewLockManager(lockRepo)
	policy := reservationDomain.PolicyByName(cfg.CancellationPolicy)

	reservationService := application.NewReservationService(
		reservationRepo,
		lockManager,
		roomRepo,
		paymentRepo,
		gateway,
		kafkaProducer,
		clk,
		policy,
		cfg.HoldWindow,
		cfg.LockTTL,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the expiry reclaimer in a goroutine
	reclaimer := application.NewExpiryReclaimer(
		reservationRepo,
		lockManager,
		kafkaProducer,
		clk,
		cfg.SweepInterval,
		log,
	)
	go reclaimer.Start(ctx)

	// Initialize and start payment event consumer in a goroutine
	groupID := cfg.KafkaConfig.GroupPrefix + "reservation-service"
	paymentConsumer := consumer.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		reservationService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	reservationHandler := handler.NewReservationHandler(reservationService)
	roomHandler := handler.NewRoomHandler(roomRepo, reservationService)
	adminHandler := handler.NewAdminReservationHandler(reservationService, reclaimer)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-reservation")
	healthHandler.RegisterRoutes(router)

	// Register routes
	reservationHandler.RegisterRoutes(&router.RouterGroup)
	roomHandler.RegisterRoutes(&router.RouterGroup)
	adminHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-reservation...")

	// Stop the reclaimer and consumer
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-reservation stopped")
}
