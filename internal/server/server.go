package server

import (
	"context"
	"net/http"
	"time"

	"fedlearn.dev/dashboard/internal/config"
	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/internal/middleware"
	"fedlearn.dev/dashboard/internal/scheduler"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"fedlearn.dev/dashboard/pkg/ratelimit"
	"fedlearn.dev/dashboard/pkg/storage"
	"fedlearn.dev/dashboard/pkg/validator"

	adminHttp "fedlearn.dev/dashboard/internal/modules/admin/delivery/http"
	adminRepo "fedlearn.dev/dashboard/internal/modules/admin/repository"
	adminService "fedlearn.dev/dashboard/internal/modules/admin/service"

	analyticsHttp "fedlearn.dev/dashboard/internal/modules/analytics/delivery/http"
	counterRepo "fedlearn.dev/dashboard/internal/modules/analytics/repository"
	analyticsService "fedlearn.dev/dashboard/internal/modules/analytics/service"

	auditRepo "fedlearn.dev/dashboard/internal/modules/audit/repository"
	auditService "fedlearn.dev/dashboard/internal/modules/audit/service"

	authHttp "fedlearn.dev/dashboard/internal/modules/auth/delivery/http"
	authRepo "fedlearn.dev/dashboard/internal/modules/auth/repository"
	authService "fedlearn.dev/dashboard/internal/modules/auth/service"

	contribRepo "fedlearn.dev/dashboard/internal/modules/contribution/repository"

	downloadHttp "fedlearn.dev/dashboard/internal/modules/download/delivery/http"
	downloadRepo "fedlearn.dev/dashboard/internal/modules/download/repository"
	downloadService "fedlearn.dev/dashboard/internal/modules/download/service"

	faqHttp "fedlearn.dev/dashboard/internal/modules/faq/delivery/http"
	faqRepo "fedlearn.dev/dashboard/internal/modules/faq/repository"
	faqService "fedlearn.dev/dashboard/internal/modules/faq/service"

	modelHttp "fedlearn.dev/dashboard/internal/modules/model/delivery/http"
	modelRepo "fedlearn.dev/dashboard/internal/modules/model/repository"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"

	notiHttp "fedlearn.dev/dashboard/internal/modules/notification/delivery/http"
	notifRepo "fedlearn.dev/dashboard/internal/modules/notification/repository"
	notifService "fedlearn.dev/dashboard/internal/modules/notification/service"

	pageHttp "fedlearn.dev/dashboard/internal/modules/pages/delivery/http"
	pageService "fedlearn.dev/dashboard/internal/modules/pages/service"

	profileHttp "fedlearn.dev/dashboard/internal/modules/profile/delivery/http"
	profileService "fedlearn.dev/dashboard/internal/modules/profile/service"

	searchService "fedlearn.dev/dashboard/internal/modules/search/service"

	sessionRepo "fedlearn.dev/dashboard/internal/modules/session/repository"
	sessionService "fedlearn.dev/dashboard/internal/modules/session/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the optional backing services. Each nil field falls back to an
// in-process implementation or disables the feature.
type Deps struct {
	Redis  *redis.Client
	DB     *gorm.DB
	Meili  meilisearch.ServiceManager
	Mirror storage.ArtifactStorage
}

type Server struct {
	engine    *gin.Engine
	scheduler *scheduler.Scheduler
	http      *http.Server
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	api := apiclient.New(apiclient.Config{
		BaseURL:     cfg.PlatformAPIURL,
		Timeout:     cfg.PlatformTimeout,
		LongTimeout: cfg.UploadTimeout,
		Attempts:    cfg.RetryCount,
		RetryWait:   cfg.RetryWait,
	})
	limiter := ratelimit.New(deps.Redis)

	// Session Module
	var sessionStore sessionRepo.SessionRepository
	if deps.Redis != nil {
		sessionStore = sessionRepo.NewRedisSessionRepository(deps.Redis, cfg.SessionIdleTimeout)
	} else {
		sessionStore = sessionRepo.NewMemorySessionRepository()
	}
	sessionSvc := sessionService.NewSessionService(sessionStore, cfg.SessionIdleTimeout, cfg.SessionSecret)

	// Ledger
	var auditRepository auditRepo.AuditRepository
	var downloadLedger downloadRepo.DownloadRepository
	if deps.DB != nil {
		auditRepository = auditRepo.NewAuditRepository(deps.DB)
		downloadLedger = downloadRepo.NewDownloadRepository(deps.DB)
	}
	auditSvc := auditService.NewAuditService(auditRepository)

	// Notification Module
	var hub notifService.Hub
	if deps.Redis != nil {
		hub = notifService.NewRedisHub(deps.Redis)
	}
	notificationSvc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(api), hub, cfg.NotificationDebounce)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, cfg.AllowedOrigins)

	authSvc := authService.NewAuthService(authRepo.NewAuthRepository(api), sessionSvc, notificationSvc, limiter, cfg.RateLimitLogin, cfg.SessionIdleTimeout)
	authHandler := authHttp.NewAuthHandler(authSvc, cfg.SecureCookies)

	// Model Module
	var index searchService.ModelIndex
	if deps.Meili != nil {
		index = searchService.NewMeiliModelIndex(deps.Meili)
	} else {
		index = searchService.NewMemoryModelIndex()
	}
	var downloads counterRepo.DownloadCounter
	if deps.Redis != nil {
		downloads = counterRepo.NewRedisDownloadCounter(deps.Redis)
	} else {
		downloads = counterRepo.NewMemoryDownloadCounter()
	}
	modelRepository := modelRepo.NewModelRepository(api)
	modelSvc := modelService.NewModelService(modelRepository, index, downloads, limiter, auditSvc, cfg.RateLimitComment)
	modelHandler := modelHttp.NewModelHandler(modelSvc)

	contributionRepository := contribRepo.NewContributionRepository(api)
	profileSvc := profileService.NewProfileService(contributionRepository, notificationSvc, deps.Mirror, cfg.CloudinaryUploadFolder)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	adminRepository := adminRepo.NewAdminRepository(api)
	adminSvc := adminService.NewAdminService(adminRepository, contributionRepository, modelRepository, auditSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	analyticsSvc := analyticsService.NewAnalyticsService(adminRepository, contributionRepository, modelRepository, downloads)
	analyticsHandler := analyticsHttp.NewAnalyticsHandler(analyticsSvc)

	faqSvc := faqService.NewFAQService(faqRepo.NewFAQRepository(api))
	faqHandler := faqHttp.NewFAQHandler(faqSvc)

	proxy := downloadRepo.NewProxyRepository(api)
	downloader := downloadService.NewBatchDownloader(contributionRepository, proxy, downloadLedger)
	downloadSvc := downloadService.NewDownloadService(proxy, downloadLedger, downloader, cfg.ExportDir)
	downloadHandler := downloadHttp.NewDownloadHandler(downloadSvc)

	pageSvc := pageService.NewPageService(modelSvc, notificationSvc, profileSvc)
	pageHandler := pageHttp.NewPageHandler(pageSvc, modelSvc, profileSvc, faqSvc, adminSvc, analyticsSvc)

	// Periodic jobs
	jobs := scheduler.NewScheduler(cfg.PlatformTimeout * 2)
	for _, job := range []scheduler.Job{
		&scheduler.SessionSweepJob{Sessions: sessionSvc, Notifications: notificationSvc, Cron: cfg.SessionCheckSchedule},
		&scheduler.NotificationPollJob{Sessions: sessionSvc, Notifications: notificationSvc, Cron: cfg.NotificationPollSchedule},
		&scheduler.SearchReindexJob{Sessions: sessionSvc, Models: modelSvc, Cron: cfg.SearchReindexSchedule},
	} {
		if err := jobs.Register(job); err != nil {
			return nil, err
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/metrics", "/healthz", "/api/notifications/unread-count"},
	}))
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if err := validator.RegisterGin(); err != nil {
		return nil, err
	}

	authMiddleware := middleware.NewAuthMiddleware(sessionSvc)

	// Page routes
	router.GET("/login", authMiddleware.Optional(), pageHandler.Login)
	router.GET("/faq", authMiddleware.Optional(), pageHandler.FAQ)

	visitor := router.Group("", authMiddleware.PageGuard(entity.RoleVisitor))
	{
		visitor.GET("/", pageHandler.Dashboard)
		visitor.GET("/models", pageHandler.Models)
		visitor.GET("/models/:id", pageHandler.ModelDetail)
		visitor.GET("/notifications", pageHandler.Notifications)
		visitor.GET("/profile", pageHandler.Profile)
		visitor.GET("/guide", pageHandler.Guide)
	}
	router.GET("/use-model", authMiddleware.PageGuard(entity.RoleMember), pageHandler.UseModel)
	router.GET("/contributions/upload", authMiddleware.PageGuard(entity.RoleResearcher), pageHandler.UploadContribution)

	adminPages := router.Group("/admin", authMiddleware.PageGuard(entity.RoleAdmin))
	{
		adminPages.GET("/users", pageHandler.AdminUsers)
		adminPages.GET("/models", pageHandler.AdminModels)
		adminPages.GET("/contributions", pageHandler.AdminContributions)
		adminPages.GET("/analytics", pageHandler.AdminAnalytics)
	}

	apiGroup := router.Group("/api")

	// Public routes (no auth required)
	apiGroup.POST("/auth/login", authHandler.Login)
	apiGroup.GET("/faq", faqHandler.GetFAQs)

	protected := apiGroup.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/session", authHandler.Session)
		protected.GET("/auth/gdrive", authHandler.GetGDrive)
		protected.PUT("/auth/gdrive", authHandler.SetupGDrive)

		// Model routes
		protected.GET("/models", modelHandler.List)
		protected.GET("/models/experimental", modelHandler.Experimental)
		protected.GET("/models/search", authMiddleware.RequireRole(entity.RoleMember), modelHandler.Search)
		protected.GET("/models/:id", modelHandler.Detail)
		protected.GET("/models/:id/weights", modelHandler.Weights)
		protected.GET("/models/:id/bundle", modelHandler.Bundle)

		member := protected.Group("", authMiddleware.RequireRole(entity.RoleMember))
		{
			member.POST("/models/:id/ratings", modelHandler.Rate)
			member.POST("/models/:id/comments", modelHandler.Comment)
			member.POST("/predict", modelHandler.Predict)
		}

		// Profile routes
		protected.GET("/profile", profileHandler.GetCurrentProfile)
		researcher := protected.Group("/contributions", authMiddleware.RequireRole(entity.RoleResearcher))
		{
			researcher.GET("", profileHandler.Contributions)
			researcher.POST("", profileHandler.Upload)
			researcher.DELETE("/:id", profileHandler.DeleteContribution)
		}

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.DELETE("/notifications/:id", notificationHandler.Delete)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		protected.GET("/download", downloadHandler.Proxy)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireRole(entity.RoleAdmin))
		{
			adminGroup.GET("/users", adminHandler.GetUsers)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.PUT("/users/:id/role", adminHandler.AssignRole)

			adminGroup.POST("/models", modelHandler.Create)
			adminGroup.POST("/models/weights", modelHandler.UploadWeights)
			adminGroup.PUT("/models/:id", modelHandler.Update)
			adminGroup.POST("/models/:id/metrics", modelHandler.AddMetric)
			adminGroup.DELETE("/models/:id", modelHandler.Delete)
			adminGroup.POST("/models/:id/publish", modelHandler.Publish)
			adminGroup.PUT("/comments/:id/moderate", modelHandler.Moderate)

			adminGroup.GET("/contributions", adminHandler.GetContributions)
			adminGroup.PUT("/contributions/:id/status", adminHandler.UpdateContributionStatus)
			adminGroup.DELETE("/contributions/:id", adminHandler.DeleteContribution)
			adminGroup.POST("/contributions/download", downloadHandler.Batch)
			adminGroup.GET("/downloads", downloadHandler.History)
			adminGroup.POST("/experimental-models", adminHandler.CreateExperimentalModel)

			adminGroup.POST("/faq", adminHandler.CreateFAQ)
			adminGroup.GET("/audit", adminHandler.GetAudit)
			adminGroup.GET("/analytics", analyticsHandler.GetAnalytics)
		}
	}

	return &Server{engine: router, scheduler: jobs}, nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the periodic jobs and serves until Shutdown.
func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
