package server

import (
	"context"
	"net/http"

	"cashbox/internal/auth"
	"cashbox/internal/bankaccount"
	"cashbox/internal/config"
	"cashbox/internal/notify"
	"cashbox/internal/topup"
	"cashbox/internal/user"
	"cashbox/internal/wallet"
	"cashbox/internal/withdrawal"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	notify *notify.Service
}

func New(db *sqlx.DB, cfg *config.Config, notifyService *notify.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RequestLoggingMiddleware())

	userHandler := user.NewHandler(db, cfg.JWTSecret)
	walletHandler := wallet.NewHandler(db)
	accountHandler := bankaccount.NewHandler(db)
	topupHandler := topup.NewHandler(db, notifyService)
	withdrawalHandler := withdrawal.NewHandler(db, notifyService, cfg.MinWithdrawalCents, cfg.WithdrawalFeeCents)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/packages", topupHandler.ListPackages)

		protected.GET("/wallet", walletHandler.GetBalances)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)

		protected.POST("/topups", topupHandler.Create)
		protected.POST("/topups/:id/cancel", topupHandler.Cancel)

		protected.POST("/withdrawals", withdrawalHandler.Create)
		protected.GET("/withdrawals", withdrawalHandler.ListOwn)
		protected.POST("/withdrawals/:id/cancel", withdrawalHandler.Cancel)

		protected.POST("/bank-accounts", accountHandler.Create)
		protected.GET("/bank-accounts", accountHandler.List)
		protected.POST("/bank-accounts/:id/default", accountHandler.SetDefault)
		protected.DELETE("/bank-accounts/:id", accountHandler.Delete)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/topups", topupHandler.List)
		admin.POST("/topups/:id/complete", topupHandler.Complete)
		admin.POST("/topups/:id/fail", topupHandler.Fail)

		admin.GET("/withdrawals", withdrawalHandler.List)
		admin.POST("/withdrawals/:id/approve", withdrawalHandler.Approve)
		admin.POST("/withdrawals/:id/complete", withdrawalHandler.Complete)
		admin.POST("/withdrawals/:id/fail", withdrawalHandler.Fail)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-notification", TestNotification(notifyService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		notify: notifyService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
