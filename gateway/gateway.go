package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/artshop/pkg/cart"
	"github.com/example/artshop/pkg/checkout"
	"github.com/example/artshop/pkg/commission"
	"github.com/example/artshop/pkg/config"
	"github.com/example/artshop/pkg/metrics"
	"github.com/example/artshop/pkg/repository"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/example/artshop/docs"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Catalog     *repository.CatalogRepository
	Orders      *repository.OrderRepository
	Library     *repository.LibraryRepository
	Carts       cart.Store
	Initiator   *checkout.Initiator
	Reconciler  *checkout.Reconciler
	Downloads   *checkout.DownloadGate
	Commissions *commission.Service
	Metrics     *metrics.Metrics
}

type Gateway struct {
	config *config.Config
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, deps Deps) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(metricsMiddleware(deps.Metrics))
	}

	g := &Gateway{
		config: cfg,
		deps:   deps,
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if g.deps.Metrics != nil {
		g.router.GET("/metrics", gin.WrapH(g.deps.Metrics.Handler()))
	}

	session := sessionMiddleware(&g.config.Session)
	auth := authMiddleware(g.config.Auth.JWTSecret)

	v1 := g.router.Group("/api/v1")
	{
		// Stripe calls this without cookies or tokens.
		v1.POST("/webhooks/stripe", g.stripeWebhook)

		shop := v1.Group("", session, auth)
		{
			carts := shop.Group("/cart")
			{
				carts.GET("", g.viewCart)
				carts.DELETE("", g.clearCart)
				carts.POST("/items/:id", g.addToCart)
				carts.PUT("/items/:id", g.updateCartItem)
				carts.DELETE("/items/:id", g.removeFromCart)
			}

			checkouts := shop.Group("/checkout")
			{
				checkouts.POST("/session", g.createCheckoutSession)
				checkouts.GET("/success", g.checkoutSuccess)
				checkouts.GET("/cancel", g.checkoutCancel)
			}

			gallery := shop.Group("/gallery")
			{
				gallery.GET("", g.listGallery)
				gallery.GET("/prints/:slug", g.printDetail)
			}

			member := shop.Group("", requireUser())
			{
				member.GET("/downloads/:id", g.download)
				member.POST("/wishlist/:slug", g.addToWishlist)
				member.DELETE("/wishlist/:slug", g.removeFromWishlist)
				member.GET("/account/dashboard", g.dashboard)

				commissions := member.Group("/commissions")
				{
					commissions.POST("", g.createCommission)
					commissions.GET("", g.listCommissions)
					commissions.POST("/estimate", g.estimateCommission)
					commissions.GET("/:id", g.getCommission)
					commissions.PUT("/:id", g.updateCommission)
					commissions.DELETE("/:id", g.deleteCommission)
				}
			}
		}
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start blocks until the server stops. http.ErrServerClosed is not an error,
// including when Shutdown ran before Start.
func (g *Gateway) Start() error {
	g.logger.Info("Gateway starting", zap.String("address", g.server.Addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}
