package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arunalla/relief-intake-api/api/swagger"
	"github.com/arunalla/relief-intake-api/internal/handler"
	"github.com/arunalla/relief-intake-api/internal/middleware"
	"github.com/arunalla/relief-intake-api/internal/models"
	"github.com/arunalla/relief-intake-api/internal/repository"
	"github.com/arunalla/relief-intake-api/internal/service"
	"github.com/arunalla/relief-intake-api/pkg/cache"
	"github.com/arunalla/relief-intake-api/pkg/config"
	"github.com/arunalla/relief-intake-api/pkg/database"
	"github.com/arunalla/relief-intake-api/pkg/jobs"
	"github.com/arunalla/relief-intake-api/pkg/logger"
	"github.com/arunalla/relief-intake-api/pkg/mailer"
	corsmiddleware "github.com/arunalla/relief-intake-api/pkg/middleware/cors"
	reqidmiddleware "github.com/arunalla/relief-intake-api/pkg/middleware/requestid"
)

// @title Arunalla Relief Intake API
// @version 1.0.0
// @description Flood-relief education support intake and case management
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, list caching disabled", "error", err)
		redisClient = nil
	}

	requestRepo := repository.NewRequestRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	managerRepo := repository.NewManagerRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	sender := mailer.NewAsyncSender(
		mailer.NewSendGrid(cfg.Email, int(cfg.Intake.OTPTTL.Minutes())),
		jobs.QueueConfig{
			Workers:    cfg.Intake.MailWorkers,
			MaxRetries: cfg.Intake.MailRetries,
			Logger:     logr,
		},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender.Start(ctx)
	defer sender.Stop()

	metricsSvc := service.NewMetricsService()
	timelineSvc := service.NewTimelineService(timelineRepo, logr)
	requestSvc := service.NewRequestService(requestRepo, timelineSvc, cacheRepo, metricsSvc, service.RequestServiceConfig{
		ReferencePrefix: cfg.Intake.ReferencePrefix,
		CacheEnabled:    cfg.Cache.Enabled && redisClient != nil,
		CacheTTL:        cfg.Cache.ListTTL,
	}, logr)
	managerSvc := service.NewManagerService(managerRepo, logr)
	groupSvc := service.NewGroupService(groupRepo, managerRepo, logr)
	onboardingSvc := service.NewOnboardingService(managerRepo, userRepo, sender, cfg.Intake.OTPTTL, logr)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "relief-intake-api",
	})

	requestHandler := handler.NewRequestHandler(requestSvc, timelineSvc, metricsSvc)
	managerHandler := handler.NewManagerHandler(managerSvc)
	groupHandler := handler.NewGroupHandler(groupSvc)
	onboardingHandler := handler.NewOnboardingHandler(onboardingSvc, metricsSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		pingCtx, pingCancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer pingCancel()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public intake surface: affected students and volunteer applicants.
	api.POST("/requests", requestHandler.Submit)
	api.POST("/managers", managerHandler.Apply)
	api.POST("/managers/onboarding/send-code", onboardingHandler.SendCode)
	api.POST("/managers/onboarding/verify-code", onboardingHandler.VerifyCode)
	api.POST("/managers/onboarding/activate", onboardingHandler.Activate)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	staff := api.Group("")
	staff.Use(middleware.JWT(authSvc))
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
	{
		staff.GET("/requests", requestHandler.List)
		staff.GET("/requests/:id", requestHandler.Get)
		staff.PATCH("/requests/:id/status", requestHandler.UpdateStatus)
		staff.PATCH("/requests/:id/verification", requestHandler.UpdateVerification)
		staff.PATCH("/requests/:id/priority", requestHandler.UpdatePriority)
		staff.PATCH("/requests/:id/notes", requestHandler.UpdateNotes)
		staff.POST("/requests/:id/comments", requestHandler.AddComment)
		staff.GET("/requests/:id/timeline", requestHandler.Timeline)

		staff.GET("/managers", managerHandler.List)
		staff.GET("/managers/me", managerHandler.Profile)
		staff.PUT("/managers/me", managerHandler.UpdateProfile)
		staff.GET("/managers/:id", managerHandler.Get)

		staff.GET("/manager-groups", groupHandler.List)
		staff.GET("/manager-groups/:id", groupHandler.Get)
		staff.GET("/manager-groups/:id/members", groupHandler.Members)

		staff.POST("/auth/logout", authHandler.Logout)
		staff.GET("/auth/me", authHandler.Me)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc))
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/requests/export", requestHandler.Export)
		admin.PATCH("/managers/:id/tags", managerHandler.UpdateTags)
		admin.POST("/manager-groups", groupHandler.Create)
		admin.DELETE("/manager-groups/:id", groupHandler.Delete)
		admin.POST("/manager-groups/:id/members", groupHandler.AddMember)
		admin.DELETE("/manager-groups/:id/members/:managerId", groupHandler.RemoveMember)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
