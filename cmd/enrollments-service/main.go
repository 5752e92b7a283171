package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/enrollments-service/api/swagger"
	"github.com/noah-isme/enrollments-service/internal/client"
	"github.com/noah-isme/enrollments-service/internal/handler"
	internalmiddleware "github.com/noah-isme/enrollments-service/internal/middleware"
	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/repository"
	"github.com/noah-isme/enrollments-service/internal/service"
	"github.com/noah-isme/enrollments-service/pkg/config"
	"github.com/noah-isme/enrollments-service/pkg/database"
	"github.com/noah-isme/enrollments-service/pkg/export"
	"github.com/noah-isme/enrollments-service/pkg/logger"
	corsmiddleware "github.com/noah-isme/enrollments-service/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enrollments-service/pkg/middleware/requestid"
	"github.com/noah-isme/enrollments-service/pkg/tracing"
)

// @title Enrollments Service API
// @version 1.0.0
// @description Enrollment orchestration across the student directory and course catalog.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type enrollmentStore interface {
	Save(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	Delete(ctx context.Context, e models.Enrollment) error
	FindAll(ctx context.Context, fn func(models.Enrollment) error) error
}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Env, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init tracing", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var checks []handler.ReadinessCheck
	var store enrollmentStore
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		mongoClient, coll, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect mongo", "error", err)
		}
		defer disconnectMongo(mongoClient, logr)
		store = repository.NewMongoEnrollmentRepository(coll)
		checks = append(checks, handler.ReadinessCheck{Name: "mongo", Check: func(ctx context.Context) error {
			return mongoClient.Ping(ctx, nil)
		}})
	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect postgres", "error", err)
		}
		defer closeDB(db, logr)
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Sugar().Fatalw("failed to ensure schema", "error", err)
		}
		store = repository.NewEnrollmentRepository(db)
		checks = append(checks, handler.ReadinessCheck{Name: "postgres", Check: db.PingContext})
	}

	metrics := service.NewMetricsService()
	enrollmentOpts := []service.EnrollmentServiceOption{service.WithStoreObserver(metrics)}

	if cfg.Cache.Enabled {
		redisClient, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, enrollment cache disabled", "error", err)
		} else {
			defer closeRedis(redisClient, logr)
			cache := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Cache.TTL, logr, true)
			enrollmentOpts = append(enrollmentOpts, service.WithEnrollmentCache(cache))
			checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
		}
	}

	students := client.NewStudentClient(cfg.Students, client.WithRecorder(metrics))
	courses := client.NewCourseClient(cfg.Courses, client.WithRecorder(metrics))
	validate := validator.New()

	enrollmentService := service.NewEnrollmentService(students, courses, store, validate, logr, enrollmentOpts...)
	studentService := service.NewStudentService(students, metrics, cfg.Bulk.Count, cfg.Bulk.PoolSize, logr)
	exportService := service.NewExportService(enrollmentService, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks...)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	var guard []gin.HandlerFunc
	if cfg.Auth.Enabled {
		guard = append(guard,
			internalmiddleware.JWT(service.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer)),
			internalmiddleware.RequireRoles(cfg.Auth.WriteRoles...),
		)
	}
	protect := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), h)
	}

	api := r.Group(cfg.APIPrefix)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, exportService)
	enrollments := api.Group("/enrollments")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.GET("/export", enrollmentHandler.Export)
	enrollments.GET("/:enrollmentId", enrollmentHandler.Get)
	enrollments.POST("", protect(enrollmentHandler.Create)...)
	enrollments.PUT("/:enrollmentId", protect(enrollmentHandler.Update)...)
	enrollments.DELETE("/:enrollmentId", protect(enrollmentHandler.Delete)...)

	studentHandler := handler.NewStudentHandler(studentService)
	studentsGroup := api.Group("/students")
	studentsGroup.GET("/bulk", studentHandler.Bulk)
	studentsGroup.GET("/:studentId", studentHandler.Get)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func closeDB(db *sqlx.DB, logr *zap.Logger) {
	if err := db.Close(); err != nil {
		logr.Warn("close postgres", zap.Error(err))
	}
}

func disconnectMongo(c *mongo.Client, logr *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Disconnect(ctx); err != nil {
		logr.Warn("disconnect mongo", zap.Error(err))
	}
}

func closeRedis(c *redis.Client, logr *zap.Logger) {
	if err := c.Close(); err != nil {
		logr.Warn("close redis", zap.Error(err))
	}
}
