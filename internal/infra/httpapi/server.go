package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"timesgate/internal/domain"
)

const maxBodyBytes = 64 * 1024

// Executor runs one named action.
type Executor interface {
	Execute(ctx context.Context, req domain.ActionRequest) (*domain.ActionResult, error)
	Actions() []domain.Action
}

type Server struct {
	addr        string
	device      string
	executor    Executor
	authToken   string
	rateLimiter *RateLimiter
	router      *gin.Engine
	server      *http.Server
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
}

// NewServer builds the REST bridge. An empty authToken disables the token
// check; rateLimit requests per minute per client, zero disables limiting.
func NewServer(addr, device string, executor Executor, authToken string, rateLimit int, logger *slog.Logger) *Server {
	s := &Server{
		addr:        addr,
		device:      device,
		executor:    executor,
		authToken:   authToken,
		rateLimiter: NewRateLimiter(rateLimit, time.Minute),
		logger:      logger,
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// No auth or rate limiting on health check
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1", s.authenticate(), s.rateLimiter.Middleware())
	{
		api.GET("/actions", s.handleListActions)
		api.POST("/actions/:action", s.handleAction)
		api.POST("/raw", s.handleRaw)

		api.GET("/settings", s.query(domain.ActionGetSettings))
		api.GET("/time", s.query(domain.ActionGetDeviceTime))
		api.GET("/channel", s.query(domain.ActionGetChannelInfo))
		api.GET("/dials", s.query(domain.ActionGetDialList))
		api.GET("/fonts", s.query(domain.ActionGetFontList))
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP API starting", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authToken == "" {
			c.Next()
			return
		}
		token := c.GetHeader("X-Auth-Token")
		if token == "" {
			token = c.Query("token")
		}
		if token != s.authToken {
			s.logger.Warn("unauthorized request", "remote_addr", c.ClientIP(), "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "device": s.device})
}

func (s *Server) handleListActions(c *gin.Context) {
	actions := s.executor.Actions()
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (s *Server) handleAction(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	s.execute(c, domain.Action(c.Param("action")), body)
}

func (s *Server) handleRaw(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	s.execute(c, domain.ActionRaw, body)
}

func (s *Server) query(action domain.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.execute(c, action, nil)
	}
}

func (s *Server) execute(c *gin.Context, action domain.Action, params []byte) {
	req := domain.ActionRequest{
		ID:     c.GetHeader("X-Request-ID"),
		Action: action,
		Params: params,
	}
	result, err := s.executor.Execute(c.Request.Context(), req)
	c.JSON(StatusFor(err), result)
}

// StatusFor maps an action error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrProtocol):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrTransport):
		if isTimeout(err) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
