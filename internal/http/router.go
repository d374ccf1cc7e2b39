// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	"sewaalat/internal/http/handlers"
	"sewaalat/internal/http/middleware"
	"sewaalat/internal/infra"
	"sewaalat/internal/modules/user"
)

type RouterDeps struct {
	Products     handlers.ProductService
	Auth         handlers.AuthService
	Quoter       handlers.Quoter
	Locator      handlers.Locator
	Orders       handlers.OrderService
	AdminOrders  handlers.AdminOrderService
	Documents    handlers.DocumentStore
	Verifier     infra.TokenVerifier
	UploadDir    string
	MaxBodyBytes int64
	CORSOrigins  []string
	Logger       *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))
	if deps.MaxBodyBytes > 0 {
		// Multipart bodies beyond this spill to temp files.
		r.MaxMultipartMemory = deps.MaxBodyBytes
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	api := r.Group("/api")

	productHandler := handlers.NewProductHandler(deps.Products)
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)

	authHandler := handlers.NewAuthHandler(deps.Auth)
	api.POST("/login", authHandler.Login)
	api.POST("/register", authHandler.Register)

	mobilizationHandler := handlers.NewMobilizationHandler(deps.Quoter, deps.Locator)
	api.POST("/calculate-mobilization", mobilizationHandler.Calculate)

	authed := api.Group("", middleware.Auth(deps.Verifier))
	orderHandler := handlers.NewOrderHandler(deps.Orders, deps.Documents, logger)
	authed.POST("/checkout", orderHandler.Checkout)
	authed.GET("/my-orders/:user_id", orderHandler.MyOrders)
	authed.GET("/invoices/:order_id", orderHandler.Invoice)
	authed.POST("/orders/:order_id/extend", orderHandler.Extend)
	authed.POST("/orders/:order_id/document", orderHandler.AttachDocument)

	admin := authed.Group("/admin", middleware.RequireRole(user.RoleAdmin))
	adminHandler := handlers.NewAdminHandler(deps.AdminOrders, logger)
	admin.GET("/transactions", adminHandler.ListTransactions)
	admin.PUT("/transactions/:order_id", adminHandler.UpdateTransaction)

	return cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})(r)
}
