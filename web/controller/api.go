package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yamdb/api-yamdb/util/metrics"
	"github.com/yamdb/api-yamdb/web/middleware"
	"github.com/yamdb/api-yamdb/web/permission"
	"github.com/yamdb/api-yamdb/web/service"
)

// Services is everything the API routes are served from.
type Services struct {
	Auth       *service.AuthService
	Tokens     middleware.TokenValidator
	Users      *service.UserService
	Categories *service.CategoryService
	Genres     *service.GenreService
	Titles     *service.TitleService
	Reviews    *service.ReviewService
	Comments   *service.CommentService
	Audit      *service.AuditLogService
	Server     *service.ServerService

	// Redis backs the auth rate limiter; nil disables it.
	Redis         *redis.Client
	RateLimit     int
	PageSize      int
	RetentionDays int
}

// APIController mounts /api/v1 together with /health and /metrics.
type APIController struct {
	BaseController
	serverController *ServerController
}

func NewAPIController(engine *gin.Engine, s Services) *APIController {
	a := &APIController{serverController: NewServerController(s.Server)}
	a.initRouter(engine, s)
	return a
}

func (a *APIController) initRouter(engine *gin.Engine, s Services) {
	engine.NoRoute(func(c *gin.Context) { detail(c, http.StatusNotFound, "errNotFound") })
	engine.NoMethod(func(c *gin.Context) { detail(c, http.StatusMethodNotAllowed, "errMethodNotAllowed") })

	engine.GET("/health", a.serverController.status)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group("/api/v1")
	api.Use(middleware.Authenticate(s.Tokens, s.Users))
	api.Use(middleware.Audit(s.Audit))

	auth := api.Group("/auth")
	if s.Redis != nil {
		auth.Use(middleware.RateLimit(s.Redis, middleware.DefaultRateLimitConfig(s.RateLimit)))
	}
	NewAuthController(auth, s.Auth)

	NewUserController(api.Group("/users"), s.Users, s.PageSize)
	NewTaxonomyController(api.Group("/categories"), s.Categories, s.PageSize)
	NewTaxonomyController(api.Group("/genres"), s.Genres, s.PageSize)
	NewTitleController(api.Group("/titles"), s.Titles, s.Reviews, s.Comments, s.PageSize)

	admin := api.Group("", middleware.RequirePolicy(permission.AdminOnly))
	NewAuditController(admin.Group("/audit"), s.Audit, s.PageSize, s.RetentionDays)
	admin.GET("/logs/", a.serverController.getLogs)
}
