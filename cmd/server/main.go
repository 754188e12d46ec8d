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

	"github.com/karibu-hire/service-rental/internal/application"
	"github.com/karibu-hire/service-rental/internal/config"
	"github.com/karibu-hire/service-rental/internal/domain/access"
	bookingDomain "github.com/karibu-hire/service-rental/internal/domain/booking"
	rentalEvents "github.com/karibu-hire/service-rental/internal/events"
	"github.com/karibu-hire/service-rental/internal/handler"
	"github.com/karibu-hire/service-rental/internal/pkg/auth"
	"github.com/karibu-hire/service-rental/internal/pkg/database"
	"github.com/karibu-hire/service-rental/internal/pkg/health"
	"github.com/karibu-hire/service-rental/internal/pkg/kafka"
	"github.com/karibu-hire/service-rental/internal/pkg/logger"
	"github.com/karibu-hire/service-rental/internal/pkg/middleware"
	"github.com/karibu-hire/service-rental/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-rental")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-rental",
		zap.String("port", cfg.Port),
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
		if err := db.AutoMigrate(
			&repository.BookingModel{},
			&repository.ClientModel{},
			&repository.VehicleModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		if err := repository.EnsureOverlapConstraint(db); err != nil {
			log.Fatal("failed to install booking overlap constraint", zap.Error(err))
		}
		if err := repository.EnsureClientUniqueIndexes(db); err != nil {
			log.Fatal("failed to install client unique indexes", zap.Error(err))
		}
		if err := repository.EnsureVehicleUniqueIndexes(db); err != nil {
			log.Fatal("failed to install vehicle unique indexes", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := dbConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	clientRepo := repository.NewGormClientRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)

	// Access policy and pricing
	policy := access.NewRolePolicy()
	pricer := bookingDomain.NewStandardPricer()

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		clientRepo,
		vehicleRepo,
		pricer,
		policy,
		kafkaProducer,
		log,
	)
	clientService := application.NewClientService(clientRepo, bookingRepo, policy, log)
	vehicleService := application.NewVehicleService(vehicleRepo, bookingRepo, policy, log)

	// Initialize and start fleet event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "rental-service"
	fleetConsumer := rentalEvents.NewFleetEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = fleetConsumer.Close() }()

	go func() {
		log.Info("starting fleet event consumer")
		if err := fleetConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("fleet event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	clientHandler := handler.NewClientHandler(clientService, bookingService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService, bookingService)

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
	healthHandler := health.NewHandler(db, "service-rental")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager, policy)
	clientHandler.RegisterRoutes(&router.RouterGroup, jwtManager, policy)
	vehicleHandler.RegisterRoutes(&router.RouterGroup, jwtManager, policy)

	// Register admin handler routes
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

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

	log.Info("shutting down service-rental...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-rental stopped")
}
