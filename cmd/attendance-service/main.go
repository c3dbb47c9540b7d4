package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/orfevre/attendance-backend/internal/attendance/domain"
	"github.com/orfevre/attendance-backend/internal/attendance/events"
	"github.com/orfevre/attendance-backend/internal/attendance/handler"
	"github.com/orfevre/attendance-backend/internal/attendance/repository"
	"github.com/orfevre/attendance-backend/internal/attendance/service"
	"github.com/orfevre/attendance-backend/pkg/config"
	"github.com/orfevre/attendance-backend/pkg/database"
	"github.com/orfevre/attendance-backend/pkg/httputil"
	"github.com/orfevre/attendance-backend/pkg/logger"
	"github.com/orfevre/attendance-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("attendance-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("attendance-service", cfg.Server.Environment)
	log.Info().Msg("starting Attendance Service")

	tz, err := domain.NewNormalizer(cfg.Attendance.Timezone, cfg.Attendance.DayOverHour)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid business timezone")
	}
	restDay, err := cfg.Attendance.RestWeekday()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid weekly rest day")
	}

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate schema")
		}
	}

	// Connect to RabbitMQ; without a URL events are dropped
	var rmq *messaging.RabbitMQ
	publisher := events.NewPublisherWith(messaging.NopPublisher{}, log)
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewAttendanceEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Warn().Msg("rabbitmq url not set, attendance events will not be published")
	}

	// Initialize service
	attendanceService := service.NewAttendanceService(
		service.Stores{
			Employees:  repository.NewEmployeeRepository(db),
			Punches:    repository.NewPunchRepository(db),
			Leaves:     repository.NewLeaveRepository(db),
			Holidays:   repository.NewHolidayRepository(db),
			Timesheets: repository.NewTimesheetRepository(db),
		},
		domain.NewEngine(tz, cfg.Attendance.GraceMinutes, restDay),
		publisher,
		log,
		service.WithMaxConcurrency(cfg.Attendance.MaxConcurrency),
	)

	// Initialize handlers
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "attendance-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1/attendance", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Attendance.RequestTimeout))
		r.Use(httputil.RequireJWT(cfg.JWT.Secret, cfg.JWT.Issuer, log))
		r.Mount("/", attendanceHandler.Routes())
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Str("timezone", cfg.Attendance.Timezone).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
