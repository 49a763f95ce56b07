package httpserver

import (
	"context"
	"errors"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/cart"
	"appcheckout/internal/service/checkout"
)

// Checkout is the orchestrator surface the transport needs.
type Checkout interface {
	AddItem(ctx context.Context, sessionID string, in cart.AddInput) (string, *checkout.CartView, error)
	SetQuantity(ctx context.Context, sessionID, itemKey string, quantity int) (*checkout.CartView, error)
	RemoveItem(ctx context.Context, sessionID, itemKey string) (*checkout.CartView, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*checkout.CartView, error)
	RemoveCoupon(ctx context.Context, sessionID, code string) (bool, *checkout.CartView, error)
	GetCart(ctx context.Context, sessionID string) (*checkout.CartView, error)
	GetTotals(ctx context.Context, sessionID string, withShipping bool) (*domain.Totals, error)
	GetShippingOptions(ctx context.Context, sessionID string) ([]checkout.PackageView, error)
	UpdateShipping(ctx context.Context, sessionID string, selections map[int]string) (*checkout.ShippingUpdate, error)
	UpdateOrderReview(ctx context.Context, sessionID string, in checkout.ReviewInput) (*checkout.Review, error)
	Finalize(ctx context.Context, sessionID, paymentMethod string) (*domain.OrderReference, error)
	Clear(ctx context.Context, sessionID string) error
}

// SessionIssuer issues and validates session ids.
type SessionIssuer interface {
	Issue() string
	Parse(raw string) (string, error)
	TTLSeconds() int
}

// Catalog serves product reads.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, ref string) (*domain.Product, error)
}

type Deps struct {
	Checkout    Checkout
	Sessions    SessionIssuer
	Products    Catalog
	Ready       map[string]Pinger
	CORSOrigins []string
	Currency    string
	ServiceName string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if deps.Checkout == nil || deps.Sessions == nil {
		return nil, errors.New("httpserver: checkout and sessions are required")
	}
	if err := registerValidators(); err != nil {
		return nil, err
	}
	if deps.Currency == "" {
		deps.Currency = "USD"
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "appcheckout"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.LoggerWithWriter(zap.NewStdLog(logger).Writer()),
		gin.Recovery(),
		otelgin.Middleware(deps.ServiceName),
		cors.New(corsConfig(deps.CORSOrigins)),
	)

	h := &handlers{
		checkout: deps.Checkout,
		sessions: deps.Sessions,
		products: deps.Products,
		currency: deps.Currency,
		logger:   logger,
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))
	router.POST("/sessions", h.createSession)
	if deps.Products != nil {
		router.GET("/products", h.listProducts)
		router.GET("/products/:ref", h.getProduct)
	}

	scoped := router.Group("/")
	scoped.Use(sessionMiddleware(deps.Sessions))
	scoped.DELETE("/session", h.deleteSession)

	scoped.GET("/cart", h.getCart)
	scoped.POST("/cart", h.addItem)
	scoped.POST("/cart/set-quantity", h.setQuantity)
	scoped.POST("/cart/remove-item", h.removeItem)
	scoped.POST("/cart/coupons", h.applyCoupon)
	scoped.POST("/cart/coupons/remove", h.removeCoupon)
	scoped.GET("/cart/totals", h.getTotals)
	scoped.GET("/cart/shipping-methods", h.getShippingMethods)
	scoped.POST("/cart/update-shipping", h.updateShipping)

	scoped.POST("/checkout/review", h.updateOrderReview)
	scoped.POST("/checkout/finalize", h.finalize)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", sessionHeader},
		ExposeHeaders: []string{sessionHeader},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
