package app

import (
	"talentgate_backend/docs"
	"talentgate_backend/internal/config"
	"talentgate_backend/internal/middleware"
	"talentgate_backend/internal/model"
	"talentgate_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由（无需登录）
	a.registerPublicRoutes(router, c)

	// 2. 候选人会话路由（凭会话令牌，不走JWT）
	a.registerSessionRoutes(router, c)

	// 3. 招聘方管理面（JWT）
	a.registerRecruiterRoutes(router, c)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 准入码核销入口，候选人侧的唯一门
		public.POST("/access/verify", c.session.VerifyAccess)
	}
}

func (a *App) registerSessionRoutes(router *gin.Engine, c *controllers) {
	sessions := router.Group("/api/sessions")
	{
		sessions.GET("/:token", c.session.Get)
		sessions.POST("/:token/permissions", c.session.UpdatePermissions)
		sessions.POST("/:token/start", c.session.Start)
		sessions.PUT("/:token/answers", c.session.SaveAnswers)
		sessions.POST("/:token/submit", c.session.Submit)
		sessions.POST("/:token/violations", c.session.ReportViolation)
		sessions.GET("/:token/violations", c.session.ListViolations)
		sessions.GET("/:token/result", c.session.GetResult)
	}
}

func (a *App) registerRecruiterRoutes(router *gin.Engine, c *controllers) {
	rg := router.Group("/api")
	rg.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.Recruiter))
	{
		rg.GET("/profile", c.auth.GetProfile)

		// 职位
		rg.POST("/jobs", c.job.Create)
		rg.GET("/jobs", c.job.List)
		rg.GET("/jobs/:id", c.job.Get)
		rg.PUT("/jobs/:id", c.job.Update)

		// 候选人
		rg.POST("/candidates", c.candidate.Create)
		rg.GET("/candidates", c.candidate.List)
		rg.GET("/candidates/:id", c.candidate.Get)
		rg.POST("/candidates/:id/resume", c.candidate.UploadResume)

		// 笔试与凭证
		rg.POST("/assessments", c.assessment.Create)
		rg.GET("/assessments", c.assessment.List)
		rg.GET("/assessments/:id", c.assessment.Get)
		rg.GET("/assessments/:id/sessions", c.assessment.ListSessions)
		rg.GET("/assessments/:id/results", c.match.Leaderboard)
		rg.POST("/credentials", c.assessment.IssueCredential)
		rg.GET("/credentials/:code/attempts", c.assessment.VerificationLog)
		rg.POST("/sessions/:token/terminate", c.assessment.TerminateSession)

		// 匹配评分
		rg.POST("/match/score", c.match.Score)
		rg.POST("/match/candidates/:candidateId/jobs/:jobId", c.match.ScoreCandidate)
	}
}
