package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-volunteers/internal/auth"
	"ms-volunteers/internal/config"
	"ms-volunteers/internal/database/migrations"
	"ms-volunteers/internal/kafka"
	"ms-volunteers/internal/logger"
	"ms-volunteers/internal/report"
	"ms-volunteers/internal/sse"
	"ms-volunteers/internal/volunteers"
	volunteer_db "ms-volunteers/internal/volunteers/db"
	rediswrap "ms-volunteers/internal/volunteers/redis"
	"ms-volunteers/internal/volunteers/volunteer_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func buildProducer(cfg *config.Config, logger *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled {
		logger.Info("KAFKA", "Kafka disabled, domain events will not be published")
		return nil
	}
	if cfg.Kafka.MockMode {
		logger.Info("KAFKA", "Kafka running in mock mode, events are logged only")
		return kafka.NewMockProducer(logger)
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))

	requiredTopics := []string{
		cfg.Kafka.Topics.VolunteerRegistered,
		cfg.Kafka.Topics.VolunteerUpdated,
		cfg.Kafka.Topics.VolunteerDeleted,
		cfg.Kafka.Topics.MastersheetGenerated,
	}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		logger.Info("KAFKA", "Required topics ensured successfully")
	}
	return producer
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Volunteer Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	migrationRunner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := migrationRunner.RunMigrations(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	defer migrationRunner.Close()
	logger.Info("DATABASE", "✅ Schema migrations applied")

	kafkaProducer := buildProducer(cfg, logger)
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
	}

	identity := report.IdentityExact
	if cfg.Report.IdentityFold {
		identity = report.IdentityFold
	}
	aggregator := report.NewAggregator(identity)
	renderer := report.NewRenderer(cfg.Report.FontPath, aggregator)

	attendanceEmitter := sse.NewAttendanceEventEmitter()

	volunteerService := volunteers.NewService(&volunteer_db.DB{Bun: bunDB}, renderer, logger)
	volunteerService.Emitter = attendanceEmitter
	volunteerService.Cache = rediswrap.NewCache(redisClient, cfg.Redis.SearchTTL, logger)
	volunteerService.Topics = cfg.Kafka.Topics
	volunteerService.Report = cfg.Report
	if kafkaProducer != nil {
		volunteerService.Producer = kafkaProducer
	}

	handler := &volunteer_api.Handler{
		VolunteerService: volunteerService,
		Logger:           logger,
	}
	sseHandler := volunteer_api.NewSSEHandler(logger, attendanceEmitter)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Public Routes ---
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/api/volunteers", handler.ListVolunteers)
	r.Get("/api/volunteers/search", handler.SearchVolunteers)
	r.Get("/api/volunteers/{volunteerID}", handler.GetVolunteer)
	r.Get("/api/volunteers/event/{eventID}", handler.ListVolunteersByEvent)
	r.Get("/api/events/{eventID}/attendance/stream", sseHandler.HandleEventAttendance)
	logger.Info("ROUTER", "Public volunteer read and SSE endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(auth.Middleware(cfg.Auth.Issuer))
			logger.Info("AUTH", "OIDC middleware applied to protected API routes")
		} else {
			logger.Warn("AUTH", "Auth disabled, mutation and report routes are open")
		}

		r.Route("/api", func(r chi.Router) {
			r.Post("/volunteers", handler.RegisterVolunteer)
			r.Put("/volunteers/{volunteerID}", handler.UpdateVolunteer)
			r.Delete("/volunteers/{volunteerID}", handler.DeleteVolunteer)
			logger.Info("ROUTER", "Volunteer mutation routes registered under /api/volunteers")

			r.Post("/generate-pdf", handler.GeneratePDF)
			r.Get("/reports/individual", handler.IndividualReport)
			logger.Info("ROUTER", "Report routes registered")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Volunteer Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Volunteer Service shutdown complete")
	}
}
