package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/lounge/internal/config"
	devicedomain "github.com/smallbiznis/lounge/internal/device/domain"
	"github.com/smallbiznis/lounge/internal/observability"
	obslogger "github.com/smallbiznis/lounge/internal/observability/logger"
	orderdomain "github.com/smallbiznis/lounge/internal/order/domain"
	productdomain "github.com/smallbiznis/lounge/internal/product/domain"
	ratecatalogdomain "github.com/smallbiznis/lounge/internal/ratecatalog/domain"
	sessiondomain "github.com/smallbiznis/lounge/internal/session/domain"
	settlementdomain "github.com/smallbiznis/lounge/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	ObsCfg   observability.Config
	Registry *prometheus.Registry `optional:"true"`
}

func NewEngine(obsCfg observability.Config, registry *prometheus.Registry) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}

	return r
}

func registerGin(p EngineParams) *gin.Engine {
	return NewEngine(p.ObsCfg, p.Registry)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	validate      *validator.Validate
	deviceSvc     devicedomain.Service
	rateSvc       ratecatalogdomain.Service
	productSvc    productdomain.Service
	orderSvc      orderdomain.Service
	sessionSvc    sessiondomain.Service
	settlementSvc settlementdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	DeviceSvc     devicedomain.Service
	RateSvc       ratecatalogdomain.Service
	ProductSvc    productdomain.Service
	OrderSvc      orderdomain.Service
	SessionSvc    sessiondomain.Service
	SettlementSvc settlementdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		validate:      newValidator(),
		deviceSvc:     p.DeviceSvc,
		rateSvc:       p.RateSvc,
		productSvc:    p.ProductSvc,
		orderSvc:      p.OrderSvc,
		sessionSvc:    p.SessionSvc,
		settlementSvc: p.SettlementSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Devices --------
	api.GET("/devices", s.ListDevices)
	api.POST("/devices", s.CreateDevice)
	api.GET("/devices/:id", s.GetDeviceByID)

	// -------- Rate profiles --------
	api.GET("/rate-profiles", s.ListRateProfiles)
	api.GET("/rate-profiles/:id", s.GetRateProfileByID)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProductByID)
	api.POST("/products/:id/restock", s.RestockProduct)

	// -------- Counter sales --------
	api.POST("/sales", s.CreateSale)

	// -------- Sessions --------
	api.POST("/sessions", s.StartSession)
	api.GET("/sessions", s.ListActiveSessions)
	api.GET("/sessions/history", s.ListSessionHistory)
	api.GET("/sessions/:id", s.GetCurrentBill)
	api.POST("/sessions/:id/profile", s.SwitchSessionProfile)
	api.POST("/sessions/:id/items", s.AddSessionItem)
	api.DELETE("/sessions/:id/items/:product_id", s.RemoveSessionItem)
	api.POST("/sessions/:id/payments", s.RecordSessionPayment)
	api.PATCH("/sessions/:id/payments/:payment_id", s.EditSessionPayment)
	api.DELETE("/sessions/:id/payments/:payment_id", s.DeleteSessionPayment)
	api.POST("/sessions/:id/checkout", s.CheckoutSession)

	// -------- Carry-forward --------
	api.GET("/transfers", s.ListTransferCandidates)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
