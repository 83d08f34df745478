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
	"go.uber.org/zap"

	"github.com/tripseat/service-booking/internal/application"
	"github.com/tripseat/service-booking/internal/config"
	routeDomain "github.com/tripseat/service-booking/internal/domain/route"
	bookingEvents "github.com/tripseat/service-booking/internal/events"
	"github.com/tripseat/service-booking/internal/handler"
	"github.com/tripseat/service-booking/internal/ledger"
	"github.com/tripseat/service-booking/internal/platform/database"
	"github.com/tripseat/service-booking/internal/platform/health"
	"github.com/tripseat/service-booking/internal/platform/kafka"
	"github.com/tripseat/service-booking/internal/platform/logger"
	"github.com/tripseat/service-booking/internal/platform/middleware"
	"github.com/tripseat/service-booking/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("ledger_mode", cfg.LedgerMode),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.RouteModel{}, &repository.BookingModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsPath, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	verifier := middleware.NewTokenVerifier(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer)

	// Initialize repositories
	routeRepo := repository.NewGormRouteRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	// Select the capacity ledger
	var capacityLedger routeDomain.CapacityLedger
	switch cfg.LedgerMode {
	case config.LedgerModeStriped:
		capacityLedger = ledger.NewStriped(routeRepo, cfg.LedgerStripes, log)
	default:
		capacityLedger = repository.NewGormCapacityLedger(db, log)
	}

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if cfg.KafkaEnabled {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	}

	// Initialize application services
	fares := routeDomain.NewSegmentFareCalculator()
	routeService := application.NewRouteService(routeRepo, capacityLedger, fares, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		routeRepo,
		fares,
		capacityLedger,
		publisher,
		cfg.CompensationTimeout,
		log,
	)

	// Initialize and start route event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.KafkaEnabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		routeConsumer := bookingEvents.NewRouteEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			routeService,
			log,
		)
		defer func() { _ = routeConsumer.Close() }()

		go func() {
			log.Info("starting route event consumer")
			if err := routeConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("route event consumer error", zap.Error(err))
			}
		}()
	}

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
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewRouteHandler(routeService).RegisterRoutes(&router.RouterGroup, verifier)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, verifier)
	handler.NewAdminHandler(bookingService, routeService).RegisterRoutes(&router.RouterGroup, verifier)

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
