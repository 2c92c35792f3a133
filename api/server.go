// Package api exposes the café over HTTP with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cafe-order/logger"
	"cafe-order/metrics"
	"cafe-order/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Auth        *services.AuthService
	Menu        *services.MenuService
	Orders      *services.OrderService
	Store       Pinger
	Realtime    http.Handler // mounted at /ws when set
	Metrics     *metrics.Metrics
	Log         *slog.Logger
	CORSOrigins []string
	FrontendURL string
}

// Server is the HTTP surface: JSON routes under /api plus /ws, /metrics
// and /healthz.
type Server struct {
	auth        *services.AuthService
	menu        *services.MenuService
	orders      *services.OrderService
	store       Pinger
	metrics     *metrics.Metrics
	log         *slog.Logger
	frontendURL string
	router      *gin.Engine
}

func NewServer(d Deps) *Server {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	s := &Server{
		auth:        d.Auth,
		menu:        d.Menu,
		orders:      d.Orders,
		store:       d.Store,
		metrics:     d.Metrics,
		log:         d.Log,
		frontendURL: d.FrontendURL,
	}

	router := gin.New()
	router.Use(gin.Recovery(), logger.Middleware(d.Log), corsMiddleware(d.CORSOrigins))

	router.GET("/healthz", s.handleHealth)
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if d.Realtime != nil {
		router.GET("/ws", gin.WrapH(d.Realtime))
	}

	api := router.Group("/api")
	{
		api.POST("/auth/login", s.handleLogin)
		api.GET("/menu", s.handleListMenu)
		api.POST("/orders", s.handleCreateOrder)
		api.GET("/orders/:id", s.handleGetOrder)
		api.GET("/qrcode", s.handleQRCode)
	}

	admin := api.Group("", s.requireAdmin)
	{
		admin.GET("/auth/verify", s.handleVerify)
		admin.GET("/menu/all", s.handleListAllMenu)
		admin.POST("/menu", s.handleCreateMenuItem)
		admin.PUT("/menu/:id", s.handleUpdateMenuItem)
		admin.DELETE("/menu/:id", s.handleDeleteMenuItem)
		admin.GET("/orders", s.handleListOrders)
		admin.PUT("/orders/:id/status", s.handleUpdateOrderStatus)
		admin.GET("/analytics/daily", s.handleDailyAnalytics)
	}

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			// Credentials cannot be combined with a literal "*"; echo the origin instead.
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(cfg)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.log.Warn("health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
