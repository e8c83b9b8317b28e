package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/finovia/adfin/internal/adaccount"
	addomain "github.com/finovia/adfin/internal/adaccount/domain"
	"github.com/finovia/adfin/internal/audit"
	auditdomain "github.com/finovia/adfin/internal/audit/domain"
	"github.com/finovia/adfin/internal/commission"
	commissiondomain "github.com/finovia/adfin/internal/commission/domain"
	"github.com/finovia/adfin/internal/config"
	"github.com/finovia/adfin/internal/feerule"
	feeruledomain "github.com/finovia/adfin/internal/feerule/domain"
	obsmetrics "github.com/finovia/adfin/internal/observability/metrics"
	"github.com/finovia/adfin/internal/principal"
	"github.com/finovia/adfin/internal/refund"
	refunddomain "github.com/finovia/adfin/internal/refund/domain"
	"github.com/finovia/adfin/internal/wallet"
	walletdomain "github.com/finovia/adfin/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	audit.Module,
	feerule.Module,
	refund.Module,
	adaccount.Module,
	wallet.Module,
	commission.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	cfg           config.Config
	genID         *snowflake.Node
	feeRuleSvc    feeruledomain.Service
	refundSvc     refunddomain.Service
	adAccountSvc  addomain.Service
	walletSvc     walletdomain.Service
	commissionSvc commissiondomain.Service
	auditSvc      auditdomain.Service
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	GenID         *snowflake.Node
	FeeRuleSvc    feeruledomain.Service
	RefundSvc     refunddomain.Service
	AdAccountSvc  addomain.Service
	WalletSvc     walletdomain.Service
	CommissionSvc commissiondomain.Service
	AuditSvc      auditdomain.Service
	ObsMetrics    *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		genID:         p.GenID,
		feeRuleSvc:    p.FeeRuleSvc,
		refundSvc:     p.RefundSvc,
		adAccountSvc:  p.AdAccountSvc,
		walletSvc:     p.WalletSvc,
		commissionSvc: p.CommissionSvc,
		auditSvc:      p.AuditSvc,
		obsMetrics:    p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.HTTPMetrics())
	api.Use(s.PrincipalRequired())

	// -------- Fee rules --------
	api.GET("/fee-rules", s.RequireRole(principal.RoleAdmin), s.ListFeeRules)
	api.PUT("/fee-rules", s.RequireRole(principal.RoleAdmin), s.UpsertFeeRule)

	// -------- Refunds --------
	api.POST("/refunds", s.RequireRole(principal.RoleUser, principal.RoleAdmin), s.CreateRefund)
	api.GET("/refunds", s.ListRefunds)
	api.GET("/refunds/:id", s.GetRefund)
	api.PATCH("/refunds/:id", s.RequireRole(principal.RoleAdmin), s.ReviewRefund)

	// -------- Ad accounts --------
	api.POST("/ad-accounts", s.RequireRole(principal.RoleUser, principal.RoleAdmin), s.ApplyAdAccount)
	api.GET("/ad-accounts", s.ListAdAccounts)
	api.GET("/ad-accounts/:id", s.GetAdAccount)
	api.PATCH("/ad-accounts/:id", s.RequireRole(principal.RoleAdmin), s.ReviewAdAccount)
	api.POST("/ad-accounts/:id/deposits", s.RequireRole(principal.RoleUser, principal.RoleAdmin), s.CreateDeposit)
	api.GET("/ad-accounts/:id/deposits", s.ListDeposits)

	// -------- Wallet --------
	api.POST("/wallet/topups", s.RequireRole(principal.RoleUser, principal.RoleAdmin), s.RequestTopUp)
	api.GET("/wallet/topups", s.ListTopUps)
	api.PATCH("/wallet/topups/:id", s.RequireRole(principal.RoleAdmin), s.ReviewTopUp)
	api.GET("/wallet/balance", s.GetWalletBalance)

	// -------- Commissions --------
	api.PUT("/commissions", s.RequireRole(principal.RoleAdmin), s.UpsertCommissionPeriod)
	api.GET("/commissions", s.RequireRole(principal.RoleAgent, principal.RoleAdmin), s.ListCommissions)
	api.GET("/commissions/:id", s.RequireRole(principal.RoleAgent, principal.RoleAdmin), s.GetCommissionStatus)
	api.POST("/commissions/:id/payments", s.RequireRole(principal.RoleAdmin), s.PayCommission)

	// -------- Reports --------
	api.GET("/reports/commissions/summary", s.RequireRole(principal.RoleAgent, principal.RoleAdmin), s.GetCommissionSummary)
	api.GET("/reports/commissions/monthly", s.RequireRole(principal.RoleAgent, principal.RoleAdmin), s.GetCommissionMonthly)
	api.GET("/reports/commissions/top", s.RequireRole(principal.RoleAdmin), s.GetTopAgents)

	// -------- Audit --------
	api.GET("/audit-logs", s.RequireRole(principal.RoleAdmin), s.ListAuditLogs)
}
