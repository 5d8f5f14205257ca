package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aokimura/marketplace-backend/internal/config"
	"github.com/aokimura/marketplace-backend/internal/handler"
	appmw "github.com/aokimura/marketplace-backend/internal/middleware"
	"github.com/aokimura/marketplace-backend/internal/payment"
	"github.com/aokimura/marketplace-backend/internal/repository"
	"github.com/aokimura/marketplace-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	e     *echo.Echo
	sha   string
	build string
}

func New(conn *gorm.DB, cfg *config.Config, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false, nil
			}
			if strings.HasSuffix(u.Hostname(), "vercel.app") {
				return true, nil
			}
			return false, nil
		},
	}))

	productRepo := repository.NewProductRepository(conn)
	offerRepo := repository.NewOfferRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	walletRepo := repository.NewWalletRepository(conn)
	addressRepo := repository.NewAddressRepository(conn)
	notifRepo := repository.NewNotificationRepository(conn)

	notifSvc := service.NewNotificationService(notifRepo)
	productSvc := service.NewProductService(productRepo)
	offerSvc := service.NewOfferService(offerRepo, productRepo, notifSvc)
	walletSvc := service.NewWalletService(conn, walletRepo)
	addressSvc := service.NewAddressService(addressRepo)

	gateway := payment.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey)
	orderSvc := service.NewOrderService(conn, orderRepo, productRepo, walletRepo, addressRepo,
		offerSvc, gateway, notifSvc, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	reconcileSvc := service.NewReconcileService(conn, orderRepo, productRepo, walletRepo, addressRepo, notifSvc)

	productHandler := handler.NewProductHandler(productSvc)
	offerHandler := handler.NewOfferHandler(offerSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	walletHandler := handler.NewWalletHandler(walletSvc)
	addressHandler := handler.NewAddressHandler(addressSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	webhookHandler := handler.NewWebhookHandler(cfg.GatewayWebhookSecret, reconcileSvc)

	authMw := appmw.NewAuthMiddleware(cfg.JWTSecret)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	// The gateway signs the raw body; this route stays outside the API group
	// and its middleware.
	e.POST("/webhook", webhookHandler.Handle)

	api := e.Group("/api")
	api.GET("/products", productHandler.List)
	api.GET("/products/:id", productHandler.Get)
	api.POST("/products", productHandler.Create, authMw.RequireAuth)
	api.GET("/me/products", productHandler.ListMine, authMw.RequireAuth)

	api.GET("/products/:id/preview", orderHandler.Preview, authMw.RequireAuth)
	api.POST("/products/:id/checkout", orderHandler.Checkout, authMw.RequireAuth)
	api.POST("/products/:id/pay-wallet", orderHandler.PayWithWallet, authMw.RequireAuth)
	api.GET("/products/:id/offers", offerHandler.ListByProduct, authMw.RequireAuth)

	api.POST("/offers", offerHandler.Create, authMw.RequireAuth)
	api.POST("/offers/:id/accept", offerHandler.Accept, authMw.RequireAuth)
	api.POST("/offers/:id/reject", offerHandler.Reject, authMw.RequireAuth)

	api.GET("/orders/:id", orderHandler.Get, authMw.RequireAuth)
	api.POST("/orders/:id/status", orderHandler.UpdateStatus, authMw.RequireAuth)
	api.GET("/me/orders", orderHandler.ListMine, authMw.RequireAuth)
	api.GET("/me/sales", orderHandler.ListSales, authMw.RequireAuth)

	api.GET("/me/wallet", walletHandler.Get, authMw.RequireAuth)
	api.POST("/me/wallet/withdraw", walletHandler.Withdraw, authMw.RequireAuth)

	api.GET("/me/addresses", addressHandler.ListMine, authMw.RequireAuth)
	api.POST("/me/addresses", addressHandler.Create, authMw.RequireAuth)

	api.GET("/me/notifications", notifHandler.ListMine, authMw.RequireAuth)
	api.POST("/me/notifications/read", notifHandler.MarkAllRead, authMw.RequireAuth)

	return &Server{e: e, sha: sha, build: buildTime}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
