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
	"go.uber.org/zap"

	_ "github.com/campuskit/portal-api/api/swagger"
	"github.com/campuskit/portal-api/internal/handler"
	"github.com/campuskit/portal-api/internal/middleware"
	"github.com/campuskit/portal-api/internal/models"
	"github.com/campuskit/portal-api/internal/repository"
	"github.com/campuskit/portal-api/internal/service"
	"github.com/campuskit/portal-api/pkg/cache"
	"github.com/campuskit/portal-api/pkg/config"
	"github.com/campuskit/portal-api/pkg/database"
	"github.com/campuskit/portal-api/pkg/jobs"
	"github.com/campuskit/portal-api/pkg/logger"
	corsmiddleware "github.com/campuskit/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/portal-api/pkg/middleware/requestid"
	"github.com/campuskit/portal-api/pkg/storage"
)

// @title CampusKit Portal API
// @version 1.0.0
// @description Role-based portal for a small institution
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewStudentProfileRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	resultRepo := repository.NewResultRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	reportRepo := repository.NewReportRepository(db)

	var cacheRepo *repository.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, cfg.Dashboard.CacheTTL)
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := newCacheService(cacheRepo, cfg, metricsSvc, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, metricsSvc, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campuskit-portal",
	})
	dashboardSvc := service.NewDashboardService(userRepo, attendanceRepo, resultRepo, profileRepo, cacheSvc, logr)
	userSvc := service.NewUserService(userRepo, profileRepo, dashboardSvc, validate, logr)
	studentSvc := service.NewStudentService(profileRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, profileRepo, dashboardSvc, logr)
	resultSvc := service.NewResultService(resultRepo, profileRepo, dashboardSvc, validate, logr)
	materialSvc := service.NewMaterialService(materialRepo, validate, logr)
	resourceSvc := service.NewResourceService(resourceRepo, profileRepo, validate, logr)
	settingsSvc := service.NewSettingsService(userRepo, validate, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStore(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init report storage", zap.Error(err))
		}
		signer := storage.NewSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(reportRepo, attendanceRepo, resultRepo, store, signer, metricsSvc, logr, jobs.Options{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
		})
		reportSvc.Start(context.Background())
		defer reportSvc.Stop()
	}

	sessionCookie := handler.SessionCookie{
		Name:   cfg.JWT.CookieName,
		MaxAge: cfg.JWT.Expiration,
		Secure: cfg.JWT.CookieSecure,
	}
	authHandler := handler.NewAuthHandler(authSvc, sessionCookie)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	resultHandler := handler.NewResultHandler(resultSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc, sessionCookie)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("")
		authed.Use(middleware.Auth(authSvc, cfg.JWT.CookieName))
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.Auth(authSvc, cfg.JWT.CookieName))

	// Teachers may browse the user list; everything else under /admin stays
	// admin-only.
	adminRead := protected.Group("/admin")
	adminRead.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	adminRead.GET("/users", userHandler.List)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/users", userHandler.Create)
		admin.GET("/users/:id", userHandler.Get)
		admin.PATCH("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)

		admin.GET("/attendance", attendanceHandler.ListAll)
		admin.GET("/results", resultHandler.ListAll)
		admin.GET("/students", studentHandler.ListProfiles)
		admin.GET("/dashboard", dashboardHandler.AdminSummary)
		admin.GET("/settings", settingsHandler.Get)
		admin.POST("/settings", settingsHandler.UpdateSettings)

		if reportSvc != nil {
			reportHandler := handler.NewReportHandler(reportSvc)
			admin.POST("/reports", reportHandler.Create)
			admin.GET("/reports/:id", reportHandler.Get)
			admin.GET("/reports/:id/url", reportHandler.DownloadURL)
			api.GET("/reports/download", reportHandler.Download)
		}
	}

	staff := protected.Group("")
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		staff.GET("/attendance", attendanceHandler.Day)
		staff.POST("/attendance", attendanceHandler.Mark)
		staff.POST("/results", resultHandler.Create)
		staff.POST("/materials", materialHandler.Create)
	}

	protected.GET("/materials", materialHandler.List)

	settings := protected.Group("/settings")
	{
		settings.POST("/password", settingsHandler.ChangePassword)
		settings.POST("/two-factor", settingsHandler.ToggleTwoFactor)
		settings.PATCH("", settingsHandler.UpdateSettings)
		settings.DELETE("/account", settingsHandler.DeleteAccount)
	}

	student := protected.Group("/student")
	student.Use(middleware.RequireRoles(models.RoleStudent))
	{
		student.GET("/profile", studentHandler.Profile)
		student.PATCH("/profile", studentHandler.UpdateProfile)
		student.GET("/attendance", attendanceHandler.MyHistory)
		student.GET("/results", resultHandler.MyResults)
		student.GET("/dashboard", dashboardHandler.StudentSummary)
		student.GET("/resources", resourceHandler.List)
		student.POST("/resources", resourceHandler.Create)
		student.PATCH("/resources/:id", resourceHandler.Update)
		student.DELETE("/resources/:id", resourceHandler.Delete)
		student.PATCH("/settings", settingsHandler.UpdateSettings)
		student.PATCH("/security", settingsHandler.Security)
		student.DELETE("/security", settingsHandler.DeleteAccount)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
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

func newCacheService(repo *repository.CacheRepository, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if repo == nil {
		return service.NewCacheService(nil, false, metrics, logr)
	}
	return service.NewCacheService(repo, cfg.Dashboard.CacheEnabled, metrics, logr)
}
