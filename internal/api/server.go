package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/deliverydesk/internal/auth"
	"github.com/deliverydesk/internal/models"
	"github.com/deliverydesk/internal/report"
	"github.com/deliverydesk/internal/scheduler"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

type Options struct {
	DB        *gorm.DB
	Reports   *report.Service
	Schedules *scheduler.Manager
	Runner    scheduler.BatchRunner
	JWTSecret string
	TokenTTL  time.Duration
	APIKey    string
	Logger    *slog.Logger
}

type Server struct {
	db        *gorm.DB
	reports   *report.Service
	schedules *scheduler.Manager
	runner    scheduler.BatchRunner
	jwtSecret string
	tokenTTL  time.Duration
	apiKey    string
	logger    *slog.Logger
	router    *gin.Engine
}

func NewServer(opts Options) *Server {
	useJSONFieldNames()

	server := &Server{
		db:        opts.DB,
		reports:   opts.Reports,
		schedules: opts.Schedules,
		runner:    opts.Runner,
		jwtSecret: opts.JWTSecret,
		tokenTTL:  opts.TokenTTL,
		apiKey:    opts.APIKey,
		logger:    opts.Logger,
		router:    gin.Default(),
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	if server.tokenTTL <= 0 {
		server.tokenTTL = 24 * time.Hour
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID())
	s.router.GET("/health", s.health)

	v1 := s.router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", s.login)

	// Batch trigger for an external scheduler or an administrator
	v1.POST("/scheduled-reports/run", auth.AdminOrAPIKey(s.db, s.jwtSecret, s.apiKey), s.runScheduledReports)

	// Protected routes (require authentication)
	api := v1.Group("")
	api.Use(auth.Middleware(s.db, s.jwtSecret))

	reports := api.Group("/reports")
	{
		reports.POST("", auth.RequirePermission(models.PermReportsCreate), s.createReport)
		reports.GET("", auth.RequirePermission(models.PermReportsView), s.listReports)
		reports.GET("/:id", auth.RequirePermission(models.PermReportsView), s.getReport)
		reports.GET("/:id/download", auth.RequirePermission(models.PermReportsView), s.downloadReport)
	}

	schedules := api.Group("/scheduled-reports")
	{
		schedules.GET("", s.listScheduledReports)
		schedules.POST("", auth.RequirePermission(models.PermReportsSchedule), s.createScheduledReport)
		schedules.GET("/:id", s.getScheduledReport)
		schedules.PATCH("/:id", s.updateScheduledReport)
		schedules.DELETE("/:id", s.deleteScheduledReport)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on port and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln. When ctx is cancelled it stops accepting
// connections and waits up to shutdownTimeout for in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		s.respondError(c, err)
		return
	}

	var user models.User
	if err := s.db.WithContext(c.Request.Context()).Where("email = ?", loginReq.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.IsActive || !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user, s.jwtSecret, s.tokenTTL)
	if err != nil {
		s.respondError(c, fmt.Errorf("failed to generate token: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(s.tokenTTL.Seconds())})
}

// idParam parses :id; it writes a 400 and returns false on failure.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "fields": gin.H{"id": "must be a positive integer"}})
		return 0, false
	}
	return uint(id), true
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(scheduler.DefaultPageSize)))
	return page, limit
}
