package server

import (
	"context"
	"net/http"
	"satchmo-store/internal/handler"
	appmw "satchmo-store/internal/middleware"
	"satchmo-store/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Services are the application services the HTTP layer talks to.
type Services struct {
	Products service.ProductService
	Carts    service.CartService
	Orders   service.OrderService
	Checkout service.CheckoutService
	Accounts service.AccountService
	Store    service.StoreService
	Check    service.CheckService
}

type Server struct {
	echo            *echo.Echo
	productHandler  *handler.ProductHandler
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	orderHandler    *handler.OrderHandler
	accountHandler  *handler.AccountHandler
	storeHandler    *handler.StoreHandler
	paypalHandler   *handler.PaypalHandler
}

func NewServer(log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(e)

	e.Use(appmw.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmw.Auth(services.Accounts))

	s := &Server{
		echo:            e,
		productHandler:  handler.NewProductHandler(services.Products),
		cartHandler:     handler.NewCartHandler(services.Carts),
		checkoutHandler: handler.NewCheckoutHandler(services.Checkout),
		orderHandler:    handler.NewOrderHandler(services.Orders, services.Checkout),
		accountHandler:  handler.NewAccountHandler(services.Accounts),
		storeHandler:    handler.NewStoreHandler(services.Store, services.Check),
		paypalHandler:   handler.NewPaypalHandler(services.Checkout),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", s.storeHandler.Health)

	// -------- store --------
	api.GET("/store", s.storeHandler.Info)
	api.GET("/countries", s.storeHandler.Countries)
	api.GET("/countries/:iso2", s.storeHandler.Country)
	api.GET("/gift-certificates/:code", s.storeHandler.GiftCertificate)

	// -------- catalog --------
	api.GET("/products", s.productHandler.List)
	api.GET("/products/:slug", s.productHandler.Get)
	api.GET("/categories", s.productHandler.Categories)

	// -------- cart / checkout --------
	api.POST("/carts", s.cartHandler.Create)
	api.GET("/carts/:key", s.cartHandler.Get)
	api.POST("/carts/:key/items", s.cartHandler.AddItem)
	api.PUT("/carts/:key/items/:productID", s.cartHandler.SetQuantity)
	api.DELETE("/carts/:key/items/:productID", s.cartHandler.RemoveItem)
	api.POST("/carts/:key/shipping-options", s.checkoutHandler.ShippingOptions)
	api.GET("/carts/:key/discount", s.checkoutHandler.CheckDiscount)
	api.GET("/payment-options", s.checkoutHandler.PaymentOptions)
	api.POST("/checkout", s.checkoutHandler.Checkout)

	// -------- account --------
	api.POST("/account/register", s.accountHandler.Register)
	api.POST("/account/login", s.accountHandler.Login)

	account := api.Group("/account", appmw.RequireContact())
	account.GET("", s.accountHandler.Me)
	account.GET("/addresses", s.accountHandler.Addresses)
	account.POST("/addresses", s.accountHandler.AddAddress)
	account.GET("/orders", s.orderHandler.List)
	account.GET("/orders/:id", s.orderHandler.Get)
	account.POST("/orders/:id/payments", s.orderHandler.PayBalance)

	// -------- staff --------
	admin := api.Group("/admin", appmw.RequireStaff())
	admin.GET("/orders/:id", s.orderHandler.Get)
	admin.POST("/orders/:id/status", s.orderHandler.SetStatus)
	admin.POST("/orders/:id/capture", s.orderHandler.Capture)
	admin.POST("/orders/:id/payments", s.orderHandler.PaymentReceived)
	admin.GET("/settings", s.storeHandler.SettingGroups)
	admin.GET("/settings/:group", s.storeHandler.SettingGroup)
	admin.PUT("/settings/:group/:key", s.storeHandler.UpdateSetting)
	admin.DELETE("/settings/:group/:key", s.storeHandler.ResetSetting)

	// -------- paypal webhooks / callbacks --------
	paypal := api.Group("/paypal")
	paypal.GET("/success", s.paypalHandler.HandleSuccess)
	paypal.POST("/webhook", s.paypalHandler.Webhook)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
