package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	limiter "github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/adleverage/ads-onboarding/internal/ads"
	"github.com/adleverage/ads-onboarding/internal/payments"
)

// Server represents the API server
type Server struct {
	router          *gin.Engine
	logger          *zap.Logger
	accounts        ads.AccountService
	store           payments.Store
	gateway         payments.Gateway
	validator       *validator.Validate
	rateLimiter     gin.HandlerFunc
	defaultCurrency string
}

// NewServer creates a new API server with injected service interfaces
func NewServer(
	logger *zap.Logger,
	accounts ads.AccountService,
	store payments.Store,
	gateway payments.Gateway,
	defaultCurrency string,
) *Server {
	server := &Server{
		logger:          logger,
		accounts:        accounts,
		store:           store,
		gateway:         gateway,
		validator:       validator.New(),
		defaultCurrency: defaultCurrency,
	}

	router := gin.New()

	// Add middleware
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiter (100 req/min per IP)
	limiterStore := memory.NewStore()
	rate, _ := limiter.NewRateFromFormatted("100-M")
	server.rateLimiter = ginlimiter.NewMiddleware(limiter.New(limiterStore, rate))

	server.router = router
	server.registerRoutes()
	return server
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router returns the internal Gin engine for testing purposes
func (s *Server) Router() *gin.Engine {
	return s.router
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Metrics endpoint
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	s.router.GET("/health", s.healthCheck)

	// Account onboarding
	onboarding := s.router.Group("/")
	onboarding.Use(s.rateLimiter)
	{
		onboarding.POST("/create-account", s.createAccount)
		onboarding.GET("/list-linked-accounts", s.listLinkedAccounts)
		onboarding.POST("/update-email", s.updateEmail)
		onboarding.POST("/assign-billing-setup", s.assignBillingSetup)
		onboarding.POST("/approve-topup", s.approveTopup)
	}

	// Payments
	pay := s.router.Group("/api")
	pay.Use(s.rateLimiter)
	{
		pay.POST("/payments", s.createPayment)
		pay.GET("/payments/:payment_id/status", s.getPaymentStatus)
		pay.POST("/webhooks/leptage", s.leptageWebhook)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorEnvelope("Endpoint not found."))
	})
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": nowISO(),
	})
}

func errorEnvelope(errs ...string) gin.H {
	return gin.H{"success": false, "errors": errs}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
