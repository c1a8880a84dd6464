// Package web assembles the YaMDB HTTP server: middleware, routes,
// background jobs and the listener.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/yamdb/api-yamdb/config"
	"github.com/yamdb/api-yamdb/database"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/util/common"
	"github.com/yamdb/api-yamdb/util/metrics"
	"github.com/yamdb/api-yamdb/web/cache"
	"github.com/yamdb/api-yamdb/web/controller"
	"github.com/yamdb/api-yamdb/web/job"
	"github.com/yamdb/api-yamdb/web/locale"
	"github.com/yamdb/api-yamdb/web/mail"
	"github.com/yamdb/api-yamdb/web/middleware"
	"github.com/yamdb/api-yamdb/web/network"
	"github.com/yamdb/api-yamdb/web/service"
	"github.com/yamdb/api-yamdb/web/validator"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Server is the API server together with its scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	cron *cron.Cron
	auth *service.AuthService

	// ctx bounds background jobs and is cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// NewServices builds the service graph over db and rdb.
func NewServices(db *gorm.DB, rdb *redis.Client, mailer mail.Mailer) controller.Services {
	tokens := service.NewJWTService(config.GetJWTSecret(), config.GetJWTTTL())
	codes := service.NewRedisConfirmationStore(rdb, config.GetConfirmationTTL(), bcrypt.DefaultCost)
	users := service.NewUserService(db)
	return controller.Services{
		Auth:          service.NewAuthService(db, codes, mailer, tokens, config.GetConfirmationTTL()),
		Tokens:        tokens,
		Users:         users,
		Categories:    service.NewCategoryService(db),
		Genres:        service.NewGenreService(db),
		Titles:        service.NewTitleService(db, validator.New(nil)),
		Reviews:       service.NewReviewService(db),
		Comments:      service.NewCommentService(db),
		Audit:         service.NewAuditLogService(db),
		Server:        service.NewServerService(db, rdb),
		Redis:         rdb,
		RateLimit:     config.GetRateLimit(),
		PageSize:      config.GetPageSize(),
		RetentionDays: config.GetAuditRetentionDays(),
	}
}

// NewEngine registers the middleware chain and every route.
func NewEngine(s controller.Services) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.AllowedHost(config.GetDomain()),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
		locale.LocalizerMiddleware(),
		metrics.Instrument(),
	)
	controller.NewAPIController(engine, s)
	return engine
}

func (s *Server) initRouter() (*gin.Engine, controller.Services, error) {
	if err := config.CheckJWTSecret(); err != nil {
		return nil, controller.Services{}, err
	}
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.GetDB()
	if db == nil {
		return nil, controller.Services{}, errors.New("database is not initialised")
	}
	if err := locale.InitLocalizer(config.GetLang()); err != nil {
		return nil, controller.Services{}, err
	}
	rdb, err := cache.InitRedis(config.GetRedisAddr(), config.GetRedisPassword())
	if err != nil {
		return nil, controller.Services{}, err
	}
	mailer, err := mail.New(config.GetMailConfig())
	if err != nil {
		return nil, controller.Services{}, err
	}
	if !config.HasJWTSecret() {
		logger.Warning("YAMDB_JWT_SECRET is not set, using the development secret")
	}

	services := NewServices(db, rdb, mailer)
	return NewEngine(services), services, nil
}

// startTask schedules the background jobs.
func (s *Server) startTask(services controller.Services) {
	if _, err := s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.ctx, services.Audit, services.RetentionDays)); err != nil {
		logger.Warning("add audit cleanup job failed: ", err)
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New(cron.WithLocation(time.Local))
	s.cron.Start()

	engine, services, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile, keyFile := config.GetCertFile(), config.GetKeyFile()
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewHTTPSRedirectListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("web server running HTTPS on ", listener.Addr())
		} else {
			logger.Error("error loading certificates: ", err)
			logger.Info("web server running HTTP on ", listener.Addr())
		}
	} else {
		logger.Info("web server running HTTP on ", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer common.Recover("http server")
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped: ", err)
		}
	}()

	s.auth = services.Auth
	s.startTask(services)
	return nil
}

// Stop shuts down the HTTP server, the cron scheduler and Redis.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	var err1, err2 error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err1 = s.httpServer.Shutdown(ctx)
	} else if s.listener != nil {
		err1 = s.listener.Close()
	}
	if s.auth != nil {
		s.auth.Wait()
	}
	err2 = cache.Close()
	return common.Combine(err1, err2)
}
