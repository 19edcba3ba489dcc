// Package http serves the Budget Shop JSON API over gin.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/cache"
	"budgetshop/internal/config"
	"budgetshop/internal/log"
	"budgetshop/internal/middleware/auth"
	"budgetshop/internal/middleware/cors"
	"budgetshop/internal/middleware/ratelimit"
	"budgetshop/internal/middleware/security"
	"budgetshop/internal/middleware/trace"
	"budgetshop/internal/services"
	"budgetshop/internal/store"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0"

// trustedProxyRanges are the private networks a reverse proxy may sit
// in. Forwarding headers are only honored from these.
var trustedProxyRanges = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// Services bundles the application services the handlers call.
type Services struct {
	Auth          *services.AuthService
	Categories    *services.CategoryService
	Expenses      *services.ExpenseService
	Recurring     *services.RecurringService
	Budgets       *services.BudgetService
	Shopping      *services.ShoppingService
	Summaries     *services.SummaryService
	Notifications *services.NotificationService
}

// Server is the API server. It owns the rate limiter and cache cleanup
// goroutines so Shutdown can stop them.
type Server struct {
	http.Server

	store  store.Store
	svc    Services
	logger *log.Logger

	limiter  *ratelimit.Limiter
	trace    *trace.Middleware
	detector *security.Detector
	caches   *cache.Manager

	shutdownOnce sync.Once
}

// New wires the middleware chain and routes and returns a server
// listening on all interfaces at the configured port.
func New(cfg *config.Config, st store.Store, logger *log.Logger, svc Services) *Server {
	if cfg.Production() || !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		store:    st,
		svc:      svc,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		trace:    trace.NewMiddleware(),
		detector: security.NewDetector(),
		caches:   cache.NewManager(logger),
	}
	s.caches.Register(svc.Summaries.Cache())
	s.caches.StartCleanup(10 * time.Minute)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(trustedProxyRanges); err != nil {
		s.logger.Warn("Failed to set trusted proxies", "error", err)
	}

	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.ErrorContext(c.Request.Context(), "Handler panicked", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}))
	engine.Use(s.trace.Handler())
	engine.Use(log.RequestLogger(s.logger))
	engine.Use(security.Headers(security.DefaultHeadersConfig()))
	engine.Use(s.detector.Handler())
	engine.Use(cors.Middleware(cfg.CORSOrigins))
	engine.Use(s.limiter.Middleware())

	s.routes(engine)

	s.Server = http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(engine *gin.Engine) {
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/readyz", s.handleReady)

	api := engine.Group("/api")
	api.GET("/version", s.handleVersion)
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	private := api.Group("", auth.Middleware(s.svc.Auth))

	private.POST("/auth/logout", s.handleLogout)
	private.GET("/auth/me", s.handleMe)

	private.GET("/categories", s.handleListCategories)
	private.POST("/categories", s.handleCreateCategory)
	private.PUT("/categories/:id", s.handleUpdateCategory)
	private.DELETE("/categories/:id", s.handleDeleteCategory)

	private.GET("/expenses", s.handleListExpenses)
	private.POST("/expenses", s.handleCreateExpense)
	private.GET("/expenses/:id", s.handleGetExpense)
	private.PUT("/expenses/:id", s.handleUpdateExpense)
	private.DELETE("/expenses/:id", s.handleDeleteExpense)

	private.GET("/summary", s.handleMonthSummary)

	private.GET("/recurring", s.handleListRecurring)
	private.POST("/recurring", s.handleCreateRecurring)
	private.GET("/recurring/:id", s.handleGetRecurring)
	private.PUT("/recurring/:id", s.handleUpdateRecurring)
	private.DELETE("/recurring/:id", s.handleDeleteRecurring)

	private.GET("/budgets", s.handleListBudgets)
	private.POST("/budgets", s.handleCreateBudget)
	private.GET("/budgets/:id", s.handleGetBudget)
	private.PUT("/budgets/:id", s.handleUpdateBudget)
	private.DELETE("/budgets/:id", s.handleDeleteBudget)

	private.GET("/lists", s.handleListShoppingLists)
	private.POST("/lists", s.handleCreateShoppingList)
	private.GET("/lists/:id", s.handleGetShoppingList)
	private.PUT("/lists/:id", s.handleUpdateShoppingList)
	private.DELETE("/lists/:id", s.handleDeleteShoppingList)
	private.POST("/lists/:id/items", s.handleAddItem)

	private.PUT("/items/:id", s.handleUpdateItem)
	private.DELETE("/items/:id", s.handleDeleteItem)
	private.POST("/items/:id/purchase", s.handlePurchaseItem)

	private.GET("/notifications", s.handleListNotifications)
	private.POST("/notifications/:id/read", s.handleMarkNotificationRead)
	private.POST("/notifications/read-all", s.handleMarkAllNotificationsRead)
	private.DELETE("/notifications/:id", s.handleDeleteNotification)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Budget Shop API"})
}

// handleHealth is the liveness probe. It must stay cheap and touch no
// dependencies; orchestrators poll it every 30 seconds.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "budget-shop-api"})
}

// handleReady reports whether the store is reachable.
func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(c.Request.Context(), "Readiness ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": Version, "framework": "gin"})
}

// Shutdown stops background goroutines and drains in-flight requests.
// Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
		s.logger.Info("HTTP server stopped")
	})
	return err
}
