package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medbridge-booking/config"
	deliveryHttp "medbridge-booking/internal/delivery/http"
	"medbridge-booking/internal/delivery/http/handler"
	"medbridge-booking/internal/delivery/http/middleware"
	"medbridge-booking/internal/infrastructure/cache"
	"medbridge-booking/internal/infrastructure/calendar"
	"medbridge-booking/internal/infrastructure/database"
	"medbridge-booking/internal/infrastructure/mail"
	"medbridge-booking/internal/repository"
	"medbridge-booking/internal/service"
	"medbridge-booking/internal/usecase"
	"medbridge-booking/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	lockService *service.DoctorLockService
	outbox      *service.NotificationOutbox
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	// Clinic timezone governs every schedule calculation
	location, err := time.LoadLocation(cfg.Clinic.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load clinic timezone %q: %w", cfg.Clinic.Timezone, err)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	// Initialize all layers
	server, err := app.initializeServer(cfg, location, db, redisClient)
	if err != nil {
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(cfg *config.Config, location *time.Location, db *gorm.DB, redisClient *redis.Client) (*http.Server, error) {
	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize logger
	log := logrus.StandardLogger()

	// Doctor directory is loaded once from the clinic data file
	directory, err := repository.NewFileDoctorDirectory(cfg.Clinic.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load doctor directory: %w", err)
	}
	log.Infof("Doctor directory loaded from %s", cfg.Clinic.DataPath)

	// External calendar and mail
	calendarClient, err := calendar.NewGoogleCalendarClient(context.Background(), cfg.Google, cfg.Clinic.Timezone, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize calendar client: %w", err)
	}
	notifier := mail.NewSMTPNotifier(cfg.SMTP, log)

	// Initialize repositories
	bookingRepo := repository.NewBookingRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	availabilityService := service.NewAvailabilityService(calendarClient, log, location, cfg.Clinic.SlotMinutes, cfg.Clinic.MinLeadMinutes)
	app.lockService = service.NewDoctorLockService(log)
	app.outbox = service.NewNotificationOutbox(redisClient, notifier, directory, bookingRepo, log)

	// Initialize usecases
	doctorUsecase := usecase.NewDoctorUsecase(log, directory)
	availabilityUsecase := usecase.NewAvailabilityUsecase(log, directory, availabilityService)
	bookingUsecase := usecase.NewBookingUsecase(
		log,
		cfg.Booking,
		directory,
		bookingRepo,
		auditLogRepo,
		calendarClient,
		calendarClient,
		notifier,
		app.lockService,
		availabilityService,
		app.outbox,
	)

	// Initialize handlers
	doctorHandler := handler.NewDoctorHandler(doctorUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase)
	bookingHandler := handler.NewBookingHandler(bookingUsecase, customValidator)

	// Initialize middleware
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(doctorHandler, availabilityHandler, bookingHandler, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:    serverAddr,
		Handler: httpRouter,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close stops background workers and closes all connections
func (app *App) Close() {
	if app.outbox != nil {
		app.outbox.Stop()
	}
	if app.lockService != nil {
		app.lockService.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
