package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apikeyservice "github.com/maximegiguere1one/chiroflow-sub004/internal/apikey/service"
	auditdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/audit/domain"
	autopaydomain "github.com/maximegiguere1one/chiroflow-sub004/internal/autopay/domain"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/billing/store"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/config"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/logger"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/observability/metrics"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/realtime"
	"github.com/maximegiguere1one/chiroflow-sub004/internal/tokenize"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Engine      *gin.Engine
	Store       *store.Store
	AutopaySvc  autopaydomain.Service
	AuditSvc    auditdomain.Service
	APIKeySvc   *apikeyservice.Service
	Tokenizer   *tokenize.Client
	Hub         *realtime.Hub
	SyncManager *realtime.Manager
}

// Server holds the HTTP surface over the billing core.
type Server struct {
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	engine      *gin.Engine
	store       *store.Store
	autopaySvc  autopaydomain.Service
	auditSvc    auditdomain.Service
	apikeySvc   *apikeyservice.Service
	tokenizer   *tokenize.Client
	hub         *realtime.Hub
	syncManager *realtime.Manager
	limiter     *rateLimiter
}

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		db:          p.DB,
		engine:      p.Engine,
		store:       p.Store,
		autopaySvc:  p.AutopaySvc,
		auditSvc:    p.AuditSvc,
		apikeySvc:   p.APIKeySvc,
		tokenizer:   p.Tokenizer,
		hub:         p.Hub,
		syncManager: p.SyncManager,
		limiter:     newRateLimiter(120, time.Minute),
	}
}

func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/v1")
	api.Use(s.APIKeyRequired())

	api.GET("/ws", s.RealtimePush)
	api.GET("/realtime/status", s.RealtimeStatus)
	api.POST("/realtime/enable", s.RealtimeEnable)
	api.POST("/realtime/disable", s.RealtimeDisable)

	api.POST("/cards/validate", s.ValidateCard)
	api.POST("/cards/tokenize", s.TokenizeCard)

	api.GET("/payment-methods", s.ListPaymentMethods)
	api.POST("/payment-methods", s.CreatePaymentMethod)
	api.PATCH("/payment-methods/:id", s.UpdatePaymentMethod)
	api.DELETE("/payment-methods/:id", s.DeletePaymentMethod)
	api.POST("/payment-methods/:id/default", s.SetDefaultPaymentMethod)

	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.PATCH("/invoices/:id", s.UpdateInvoice)
	api.DELETE("/invoices/:id", s.DeleteInvoice)

	api.GET("/payments", s.ListPayments)
	api.POST("/payments", s.CreatePayment)
	api.PATCH("/payments/:id", s.UpdatePayment)
	api.DELETE("/payments/:id", s.DeletePayment)

	api.GET("/subscriptions", s.ListSubscriptions)
	api.POST("/subscriptions", s.CreateSubscription)
	api.PATCH("/subscriptions/:id", s.UpdateSubscription)
	api.DELETE("/subscriptions/:id", s.DeleteSubscription)
	api.POST("/subscriptions/:id/cancel", s.CancelSubscription)

	api.GET("/contacts/:contactId/autopay", s.GetAutopay)
	api.POST("/contacts/:contactId/autopay/enable", s.EnableAutopay)
	api.POST("/contacts/:contactId/autopay/consent", s.ConsentAutopay)
	api.POST("/contacts/:contactId/autopay/disable", s.DisableAutopay)
	api.PATCH("/contacts/:contactId/autopay", s.UpdateAutopaySettings)

	api.GET("/stats", s.BillingStats)
	api.GET("/audit-logs", s.ListAuditLogs)

	api.GET("/api-keys", s.ListAPIKeys)
	api.POST("/api-keys", s.CreateAPIKey)
	api.DELETE("/api-keys/:id", s.RevokeAPIKey)

	// Returns 404 in production.
	api.POST("/test/cleanup", s.TestCleanup)
}

// @Summary      Health
// @Description  Liveness plus billing availability
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /healthz [get]
func (s *Server) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":            "ok",
		"billing_available": s.store.Available(),
		"realtime":          s.syncManager.Status(),
	}
	if lastErr := s.store.LastError(); lastErr != nil {
		body["last_error"] = lastErr
	}
	if !s.store.Available() {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
