// Package http is the HTTP adapter for the application layer. It
// translates requests into service calls and service errors into status
// codes; no business rule lives here.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcandrew/auction-backoffice/internal/application/service"
	"github.com/jmcandrew/auction-backoffice/internal/voucher"
)

// Logger interface for logging operations.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter.
type Server struct {
	config               ServerConfig
	httpServer           *http.Server
	router               *gin.Engine
	refundService        service.RefundService
	reimbursementService service.ReimbursementService
	voucherGenerator     *voucher.Generator
	logger               Logger
}

// NewServer creates a new HTTP server with the given services.
func NewServer(
	config ServerConfig,
	refundService service.RefundService,
	reimbursementService service.ReimbursementService,
	voucherGenerator *voucher.Generator,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:               config,
		router:               gin.New(),
		refundService:        refundService,
		reimbursementService: reimbursementService,
		voucherGenerator:     voucherGenerator,
		logger:               logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.refundService, s.reimbursementService, s.voucherGenerator, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.GET("/invoices/for-refund", handlers.ListEligibleInvoices)
		api.GET("/invoices/:id/refund-draft", handlers.BuildRefundDraft)

		api.POST("/refunds", handlers.CreateRefund)
		api.GET("/refunds", handlers.ListRefunds)
		api.GET("/refunds/:id", handlers.GetRefund)
		api.PUT("/refunds/:id/item-returned", handlers.MarkItemReturned)

		api.POST("/reimbursements", handlers.CreateReimbursement)
		api.GET("/reimbursements", handlers.ListReimbursements)
		api.GET("/reimbursements/:id", handlers.GetReimbursement)
		api.GET("/reimbursements/:id/history", handlers.GetReimbursementHistory)
		api.PUT("/reimbursements/:id/approve-director1", handlers.DecideStage(StageParamDirector1))
		api.PUT("/reimbursements/:id/approve-director2", handlers.DecideStage(StageParamDirector2))
		api.PUT("/reimbursements/:id/approve-accountant", handlers.DecideStage(StageParamAccountant))
		api.PUT("/reimbursements/:id/complete-payment", handlers.CompletePayment)
		api.POST("/reimbursements/:id/voucher", handlers.GenerateVoucher)
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or the server fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing).
func (s *Server) Router() *gin.Engine {
	return s.router
}
