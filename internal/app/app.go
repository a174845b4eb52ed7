package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talentgate_backend/internal/config"
	"talentgate_backend/internal/controller"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/service"
	"talentgate_backend/pkg/database"
	"talentgate_backend/pkg/logger"
	"talentgate_backend/pkg/monitoring"
	"talentgate_backend/pkg/security"
	"talentgate_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user       *repository.UserRepository
	job        *repository.JobRepository
	candidate  *repository.CandidateRepository
	assessment *repository.AssessmentRepository
	credential *repository.CredentialRepository
	session    *repository.SessionRepository
	evaluation *repository.EvaluationRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	assessment *service.AssessmentService
	verify     *service.VerifyService
	session    *service.SessionService
	proctor    *service.ProctorService
	match      *service.MatchService
	evaluator  *service.EvaluatorService
}

type controllers struct {
	auth       *controller.AuthController
	job        *controller.JobController
	candidate  *controller.CandidateController
	assessment *controller.AssessmentController
	session    *controller.SessionController
	match      *controller.MatchController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		job:        repository.NewJobRepository(db),
		candidate:  repository.NewCandidateRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		credential: repository.NewCredentialRepository(db),
		session:    repository.NewSessionRepository(db),
		evaluation: repository.NewEvaluationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg, repos.candidate)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.evaluator = service.NewEvaluatorService(cfg.Evaluator)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.credential, repos.session, repos.candidate)
	s.verify = service.NewVerifyService(repos.credential, repos.session, repos.candidate, repos.assessment, rdb, cfg)
	s.session = service.NewSessionService(repos.session, repos.assessment, repos.candidate,
		repos.job, repos.evaluation, s.evaluator, cfg)
	s.proctor = service.NewProctorService(repos.session, s.session, cfg)
	s.match = service.NewMatchService(repos.candidate, repos.job, repos.evaluation)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		job:        controller.NewJobController(repos.job),
		candidate:  controller.NewCandidateController(repos.candidate, s.storage),
		assessment: controller.NewAssessmentController(s.assessment, s.session, s.match),
		session:    controller.NewSessionController(s.verify, s.session, s.proctor, repos.evaluation),
		match:      controller.NewMatchController(s.match),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 到龄未启动会话的巡检收尾
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			if err := s.session.SweepStale(24 * time.Hour); err != nil {
				logger.Log.Error("stale session sweep error", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("talentgate", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
