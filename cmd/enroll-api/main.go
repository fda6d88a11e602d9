package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/regworks/enroll-api/api/swagger"
	"github.com/regworks/enroll-api/internal/events"
	"github.com/regworks/enroll-api/internal/handler"
	"github.com/regworks/enroll-api/internal/middleware"
	"github.com/regworks/enroll-api/internal/models"
	"github.com/regworks/enroll-api/internal/repository"
	"github.com/regworks/enroll-api/internal/service"
	"github.com/regworks/enroll-api/internal/worker"
	"github.com/regworks/enroll-api/pkg/cache"
	"github.com/regworks/enroll-api/pkg/config"
	"github.com/regworks/enroll-api/pkg/database"
	"github.com/regworks/enroll-api/pkg/logger"
	corsmiddleware "github.com/regworks/enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/regworks/enroll-api/pkg/middleware/requestid"
)

// @title Enrollment API
// @version 1.0.0
// @description Course admission and waitlist ordering service
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
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	rosterRepo := repository.NewRosterRepository(db)
	userRepo := repository.NewUserRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(rdb)
	subscriptionRepo := repository.NewSubscriptionRepository(rdb)

	metricsSvc := service.NewMetricsService()
	publisher := events.NewPublisher(rdb, cfg.Events, metricsSvc, logr)

	authSvc := service.NewAuthService(cfg.JWT, logr)
	admissionSvc := service.NewAdmissionService(rosterRepo, waitlistRepo, userRepo, publisher, cfg.Policy, metricsSvc, logr)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, rosterRepo, userRepo, publisher, metricsSvc, logr)
	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, userRepo, rosterRepo, validate, logr)
	classSvc := service.NewClassService(rosterRepo, waitlistRepo, userRepo, cfg.Policy, validate, logr)

	emailWorker := worker.NewNotifyWorker(rdb, subscriptionRepo, rosterRepo, worker.NewEmailSender(cfg.SMTP), cfg.Events, metricsSvc, logr)
	webhookWorker := worker.NewNotifyWorker(rdb, subscriptionRepo, rosterRepo, worker.NewWebhookSender(cfg.Webhook), cfg.Events, metricsSvc, logr)
	go emailWorker.Start(ctx)
	go webhookWorker.Start(ctx)

	enrollmentHandler := handler.NewEnrollmentHandler(admissionSvc, metricsSvc)
	waitlistHandler := handler.NewWaitlistHandler(waitlistSvc)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionSvc)
	classHandler := handler.NewClassHandler(classSvc)
	adminHandler := handler.NewAdminHandler(admissionSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	classes := api.Group("/classes")
	classes.GET("", classHandler.List)
	classes.POST("", middleware.RequireRoles(models.RoleRegistrar), classHandler.Create)
	classes.DELETE("/:class_id", middleware.RequireRoles(models.RoleRegistrar), classHandler.Delete)
	classes.PUT("/:class_id/capacity", middleware.RequireRoles(models.RoleRegistrar), classHandler.UpdateCapacity)
	classes.PUT("/:class_id/instructor", middleware.RequireRoles(models.RoleRegistrar), classHandler.UpdateInstructor)

	classes.POST("/:class_id/enrollments/:student_id", middleware.RBAC("REGISTRAR", "SELF"), enrollmentHandler.Enroll)
	classes.DELETE("/:class_id/enrollments/:student_id", middleware.RBAC("REGISTRAR", "SELF"), enrollmentHandler.Drop)

	classes.GET("/:class_id/waitlist", middleware.RequireRoles(models.RoleInstructor), waitlistHandler.ClassView)
	classes.DELETE("/:class_id/waitlist/:student_id", middleware.RBAC("REGISTRAR", "SELF"), waitlistHandler.Remove)

	classes.DELETE("/:class_id/roster/:student_id", middleware.RequireRoles(models.RoleInstructor), enrollmentHandler.InstructorDrop)
	classes.GET("/:class_id/roster/enrolled", middleware.RequireRoles(models.RoleInstructor), classHandler.EnrolledRoster)
	classes.GET("/:class_id/roster/dropped", middleware.RequireRoles(models.RoleInstructor), classHandler.DroppedRoster)
	classes.GET("/:class_id/roster/export", middleware.RequireRoles(models.RoleInstructor), classHandler.ExportRoster)

	students := api.Group("/students")
	students.GET("/:student_id/waitlists", middleware.RBAC("REGISTRAR", "SELF"), waitlistHandler.StudentView)
	students.POST("/:student_id/subscriptions", middleware.RBAC("REGISTRAR", "SELF"), subscriptionHandler.Create)
	students.GET("/:student_id/subscriptions", middleware.RBAC("REGISTRAR", "SELF"), subscriptionHandler.List)
	students.DELETE("/:student_id/subscriptions/:class_id", middleware.RBAC("REGISTRAR", "SELF"), subscriptionHandler.Delete)

	admin := api.Group("/admin", middleware.RequireRoles(models.RoleRegistrar))
	admin.GET("/freeze", adminHandler.GetFreeze)
	admin.PUT("/freeze", adminHandler.SetFreeze)
	admin.GET("/metrics", metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
}
