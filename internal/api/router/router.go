package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/api/handler"
	"github.com/eddwmvv/projetovereler-sub001/internal/api/middleware"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/pkg/jwt"
	"github.com/eddwmvv/projetovereler-sub001/pkg/redis"
)

const (
	admin    = model.RoleAdmin
	gestor   = model.RoleGestor
	operador = model.RoleOperador
)

// Setup builds the gin engine; rdb may be nil (no revocation, no rate limit)
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(int64(cfg.Server.BodyLimitMB) << 20))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// auth (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/sign-in", middleware.RateLimit(limiter, cfg.Server.SignInLimit, cfg.Server.SignInWindowDuration()), h.Auth.SignIn)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/sign-up", middleware.RoleAuth(admin), h.Auth.SignUp)
			authorized.POST("/auth/sign-out", h.Auth.SignOut)
			authorized.GET("/auth/me", h.Auth.Me)

			// companies
			companies := authorized.Group("/companies")
			{
				companies.GET("", h.Company.ListCompanies)
				companies.GET("/:id", h.Company.GetCompany)
				companies.POST("", middleware.RoleAuth(admin), h.Company.CreateCompany)
				companies.PUT("/:id", middleware.RoleAuth(admin, gestor), h.Company.UpdateCompany)
				companies.DELETE("/:id", middleware.RoleAuth(admin), h.Company.DeleteCompany)
			}

			// projects
			projects := authorized.Group("/projects")
			{
				projects.GET("", h.Project.ListProjects)
				projects.GET("/:id", h.Project.GetProject)
				projects.POST("", middleware.RoleAuth(admin, gestor), h.Project.CreateProject)
				projects.PUT("/:id", middleware.RoleAuth(admin, gestor), h.Project.UpdateProject)
				projects.PUT("/:id/municipalities", middleware.RoleAuth(admin, gestor), h.Project.SetMunicipalities)
				projects.DELETE("/:id", middleware.RoleAuth(admin, gestor), h.Project.DeleteProject)
			}

			// municipalities
			municipalities := authorized.Group("/municipalities")
			{
				municipalities.GET("", h.Location.ListMunicipalities)
				municipalities.GET("/:id", h.Location.GetMunicipality)
				municipalities.POST("", middleware.RoleAuth(admin, gestor), h.Location.CreateMunicipality)
				municipalities.PUT("/:id", middleware.RoleAuth(admin, gestor), h.Location.UpdateMunicipality)
				municipalities.DELETE("/:id", middleware.RoleAuth(admin), h.Location.DeleteMunicipality)
			}

			// schools
			schools := authorized.Group("/schools")
			{
				schools.GET("", h.Location.ListSchools)
				schools.GET("/:id", h.Location.GetSchool)
				schools.POST("", middleware.RoleAuth(admin, gestor), h.Location.CreateSchool)
				schools.PUT("/:id", middleware.RoleAuth(admin, gestor), h.Location.UpdateSchool)
				schools.DELETE("/:id", middleware.RoleAuth(admin, gestor), h.Location.DeleteSchool)
			}

			// classes
			classes := authorized.Group("/classes")
			{
				classes.GET("", h.Location.ListClasses)
				classes.GET("/:id", h.Location.GetClass)
				classes.POST("", middleware.RoleAuth(admin, gestor, operador), h.Location.CreateClass)
				classes.PUT("/:id", middleware.RoleAuth(admin, gestor, operador), h.Location.UpdateClass)
				classes.DELETE("/:id", middleware.RoleAuth(admin, gestor), h.Location.DeleteClass)
			}

			// students and the phase machine
			students := authorized.Group("/students")
			{
				students.GET("", h.Student.ListStudents)
				students.POST("", h.Student.CreateStudent)
				students.POST("/phase/batch", h.Student.BatchChangePhase)
				students.GET("/:id", h.Student.GetStudent)
				students.PUT("/:id", h.Student.UpdateStudent)
				students.DELETE("/:id", middleware.RoleAuth(admin, gestor), h.Student.DeleteStudent)
				students.POST("/:id/phase", h.Student.ChangePhase)
				students.POST("/:id/deactivate", h.Student.Deactivate)
				students.POST("/:id/reactivate", h.Student.Reactivate)
				students.GET("/:id/history", h.Student.PhaseHistory)
				students.GET("/:id/frame", h.Student.CurrentFrame)
				students.POST("/:id/frame/release", h.Student.ReleaseCurrentFrame)
				students.GET("/:id/frames", h.Student.FrameHistory)
			}

			// frame inventory
			frames := authorized.Group("/frames")
			{
				frames.GET("", h.Frame.ListFrames)
				frames.POST("", middleware.RoleAuth(admin, gestor), h.Frame.CreateFrame)
				frames.GET("/import/template", h.Frame.ImportTemplate)
				frames.POST("/import", middleware.RoleAuth(admin, gestor), h.Frame.Import)
				frames.POST("/numberings/validate", h.Frame.ValidateNumberings)
				frames.POST("/assign/batch", h.Frame.BatchAssign)
				frames.POST("/assign/auto", h.Frame.PlanAutoAssign)
				frames.GET("/:id", h.Frame.GetFrame)
				frames.PUT("/:id", middleware.RoleAuth(admin, gestor), h.Frame.UpdateFrame)
				frames.DELETE("/:id", middleware.RoleAuth(admin, gestor), h.Frame.DeleteFrame)
				frames.GET("/:id/history", h.Frame.History)
				frames.POST("/:id/assign", h.Frame.Assign)
				frames.POST("/:id/release", h.Frame.Release)
			}

			sizes := authorized.Group("/frame-sizes")
			{
				sizes.GET("", h.Frame.ListSizes)
				sizes.POST("", middleware.RoleAuth(admin, gestor), h.Frame.CreateSize)
				sizes.PUT("/:id", middleware.RoleAuth(admin, gestor), h.Frame.UpdateSize)
				sizes.DELETE("/:id", middleware.RoleAuth(admin, gestor), h.Frame.DeleteSize)
			}

			// reports
			reports := authorized.Group("/reports")
			{
				reports.GET("/dashboard", h.Report.Dashboard)
				reports.GET("/inventory", h.Report.InventorySummary)
			}

			export := authorized.Group("/export")
			{
				export.GET("/students", middleware.RoleAuth(admin, gestor), h.Export.ExportStudents)
			}
		}
	}

	return r
}
