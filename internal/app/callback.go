package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/config"
)

const shutdownTimeout = 5 * time.Second

// CallbackServer is the local HTTP listener: it receives the Google
// sign-in redirect credential and serves the Prometheus metrics endpoint.
type CallbackServer struct {
	server      *http.Server
	logger      *zap.Logger
	credentials chan string
}

// NewCallbackServer builds the listener. metricsHandler comes from the
// telemetry setup; healthProbe reports backend reachability for /healthz.
func NewCallbackServer(
	cfg *config.Config,
	metricsHandler http.Handler,
	healthProbe func(ctx context.Context) error,
	logger *zap.Logger,
) *CallbackServer {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &CallbackServer{
		logger:      logger,
		credentials: make(chan string, 1),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("eshop-client"))
	router.Use(requestLogger(logger))

	router.GET("/callback", s.handleCallback)
	router.POST("/callback", s.handleCallback)
	router.GET("/metrics", gin.WrapH(metricsHandler))
	router.GET("/healthz", func(c *gin.Context) {
		if healthProbe != nil {
			if err := healthProbe(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "fail",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "pass"})
	})

	s.server = &http.Server{
		Addr:    cfg.Callback.Address(),
		Handler: router,
	}
	return s
}

// handleCallback accepts the sign-in credential from the redirect target.
func (s *CallbackServer) handleCallback(c *gin.Context) {
	credential := c.Query("credential")
	if credential == "" {
		credential = c.PostForm("credential")
	}
	if credential == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing credential"})
		return
	}

	select {
	case s.credentials <- credential:
		c.String(http.StatusOK, "Signed in. You can close this window.")
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "a credential is already pending"})
	}
}

// AwaitCredential blocks until a credential arrives or the context ends.
func (s *CallbackServer) AwaitCredential(ctx context.Context) (string, error) {
	select {
	case cred := <-s.credentials:
		return cred, nil
	case <-ctx.Done():
		return "", fmt.Errorf("no sign-in credential received: %w", ctx.Err())
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *CallbackServer) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("local endpoint listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serveErr error
	select {
	case err := <-errChan:
		serveErr = err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

// requestLogger logs each handled request with its latency and status.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
