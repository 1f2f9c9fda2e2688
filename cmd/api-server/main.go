package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/practicekit/scheduling-api/api/swagger"
	"github.com/practicekit/scheduling-api/internal/handler"
	"github.com/practicekit/scheduling-api/internal/middleware"
	"github.com/practicekit/scheduling-api/internal/repository"
	"github.com/practicekit/scheduling-api/internal/service"
	"github.com/practicekit/scheduling-api/pkg/cache"
	"github.com/practicekit/scheduling-api/pkg/config"
	"github.com/practicekit/scheduling-api/pkg/database"
	"github.com/practicekit/scheduling-api/pkg/jobs"
	"github.com/practicekit/scheduling-api/pkg/logger"
	corsmiddleware "github.com/practicekit/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/practicekit/scheduling-api/pkg/middleware/requestid"
)

// @title Practice Scheduling API
// @version 1.0.0
// @description Appointment availability and booking engine
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	defer redisClient.Close()

	// Repositories.
	appointmentRepo := repository.NewAppointmentRepository(db)
	patternRepo := repository.NewPatternRepository(db)
	exceptionRepo := repository.NewExceptionRepository(db)
	practitionerRepo := repository.NewPractitionerRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.AvailabilityTTL, logr, cfg.Cache.Enabled)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	eventSvc := service.NewEventService(jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		MaxRetries: cfg.Events.MaxRetries,
		RetryDelay: cfg.Events.RetryDelay,
	}, logr)
	eventSvc.Register(service.NewLoggingConsumer(logr))
	eventSvc.Start(context.Background())
	defer eventSvc.Stop()

	availabilitySvc := service.NewAvailabilityService(
		patternRepo, exceptionRepo, calendarRepo, practitionerRepo,
		cacheSvc, metricsSvc, cfg.Scheduling.SlotStepMinutes, logr,
	)
	bookingSvc := service.NewBookingService(
		appointmentRepo, practitionerRepo, patientRepo, eventSvc,
		cacheSvc, metricsSvc, cfg.Scheduling.SlotStepMinutes, logr,
	)
	calendarSvc := service.NewCalendarService(calendarRepo, cfg.Scheduling.MaxRangeDays, logr)
	patternSvc := service.NewPatternService(patternRepo, practitionerRepo, cacheSvc, logr)
	exceptionSvc := service.NewExceptionService(exceptionRepo, practitionerRepo, cacheSvc, logr)
	exportSvc := service.NewExportService(calendarRepo, practitionerRepo, patientRepo, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Appointments: handler.NewAppointmentHandler(bookingSvc),
		Calendar:     handler.NewCalendarHandler(calendarSvc),
		Patterns:     handler.NewPatternHandler(patternSvc),
		Exceptions:   handler.NewExceptionHandler(exceptionSvc),
		Export:       handler.NewExportHandler(exportSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
