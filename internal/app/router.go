package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/print-shop/internal/app/handlers"
	"github.com/linemk/print-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/print-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/print-shop/internal/lib/metrics"
	"github.com/linemk/print-shop/internal/policy"
	"github.com/linemk/print-shop/internal/service"
)

// Services - всё, что нужно маршрутам
type Services struct {
	Auth        service.AuthServiceInterface
	PrintOrders service.PrintOrderService
	Catalog     service.CatalogService
	PeerItems   service.PeerItemService
	Carts       service.CartService
	ShopOrders  service.ShopOrderService
	Checkout    service.CheckoutService
	Admin       service.AdminService
	Dashboard   service.DashboardService
	Users       policy.UserProvider
	Documents   handlers.DocumentOpener
}

type RouterConfig struct {
	JWTSecret      string
	LoginPath      string
	MaxUploadBytes int64
}

// NewRouter собирает маршруты. Каждая группа проверяет токен, загружает
// пользователя и применяет своё правило доступа до вызова обработчика.
func NewRouter(log *slog.Logger, cfg RouterConfig, s Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(metrics.Middleware)

	router.Get("/healthz", handlers.HealthHandler)
	router.Handle("/metrics", metrics.Handler())

	router.Get("/", handlers.HomeHandler(log))
	router.Get(cfg.LoginPath, handlers.LoginPageHandler(log))
	router.Post(cfg.LoginPath, handlers.AuthHandler(log, s.Auth))
	router.Post("/register", handlers.RegisterHandler(log, s.Auth))

	gated := func(req policy.Requirement, routes func(r chi.Router)) {
		router.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWTSecret, cfg.LoginPath))
			r.Use(policy.Authenticate(log, s.Users, cfg.LoginPath))
			r.Use(policy.Require(req))
			routes(r)
		})
	}

	gated(policy.Authenticated, func(r chi.Router) {
		r.Post("/logout", handlers.LogoutHandler(log, s.Auth))
		r.Get("/shop", handlers.ShopHandler(log, s.Catalog))
		r.Get("/categories", handlers.ListCategoriesHandler(log, s.Catalog))
		r.Get("/peer-items", handlers.PeerListingHandler(log, s.PeerItems))
		r.Get("/seller/orders", handlers.SellerShopOrdersHandler(log, s.ShopOrders))
		r.Post("/seller/orders/{id}/status", handlers.UpdateShopStatusHandler(log, s.ShopOrders))
		r.Get("/payment-success", handlers.PaymentSuccessHandler(log, s.Checkout))
		r.Get(handlers.PaymentCancelPath, handlers.PaymentCancelHandler(log))
	})

	gated(policy.StudentOnly, func(r chi.Router) {
		r.Get(service.RedirectStudentBoard, handlers.StudentDashboardHandler(log, s.Dashboard))
		r.Get("/my-orders", handlers.MyOrdersHandler(log, s.Dashboard))

		r.Get("/print-orders", handlers.StudentPrintOrdersHandler(log, s.PrintOrders))
		r.Post("/print-orders", handlers.CreatePrintOrderHandler(log, s.PrintOrders, cfg.MaxUploadBytes))
		r.Get("/print-orders/{id}/document", handlers.DocumentHandler(log, s.PrintOrders, s.Documents))

		r.Get("/cart", handlers.ViewCartHandler(log, s.Carts))
		r.Post("/cart/items", handlers.AddToCartHandler(log, s.Carts))
		r.Delete("/cart/items/{id}", handlers.RemoveFromCartHandler(log, s.Carts))
		r.Post("/cart/checkout", handlers.CheckoutCartHandler(log, s.Carts, s.Checkout))

		r.Get("/peer-items/mine", handlers.MyPeerItemsHandler(log, s.PeerItems))
		r.Post("/peer-items", handlers.CreatePeerItemHandler(log, s.PeerItems))
		r.Delete("/peer-items/{id}", handlers.DeletePeerItemHandler(log, s.PeerItems))
		r.Post("/peer-items/{id}/order", handlers.OrderPeerItemHandler(log, s.ShopOrders))

		r.Get("/shop-orders", handlers.BuyerShopOrdersHandler(log, s.ShopOrders))
		r.Get("/shop-orders/{id}", handlers.BuyerShopOrderHandler(log, s.ShopOrders))
		r.Post("/shop-orders/{id}/delivery", handlers.DeliveryDetailsHandler(log, s.ShopOrders))
		r.Post("/shop-orders/{id}/cancel", handlers.CancelShopOrderHandler(log, s.ShopOrders))
		r.Post("/shop-orders/{id}/pay", handlers.PayShopOrderHandler(log, s.Checkout))
	})

	gated(policy.ApprovedVendorOnly, func(r chi.Router) {
		r.Get(service.RedirectVendorBoard, handlers.VendorDashboardHandler(log, s.Dashboard))

		r.Get(handlers.VendorPrintOrdersPath, handlers.VendorPrintOrdersHandler(log, s.PrintOrders))
		r.Get(handlers.VendorPrintOrdersPath+"/{id}", handlers.ViewPrintOrderHandler(log, s.PrintOrders))
		r.Post(handlers.VendorPrintOrdersPath+"/{id}/status", handlers.UpdatePrintStatusHandler(log, s.PrintOrders))
		r.Get(handlers.VendorPrintOrdersPath+"/{id}/document", handlers.DocumentHandler(log, s.PrintOrders, s.Documents))

		r.Get("/vendor/items", handlers.MyStoreHandler(log, s.Catalog))
		r.Post("/vendor/items", handlers.CreateVendorItemHandler(log, s.Catalog))
		r.Get("/vendor/items/{id}", handlers.GetVendorItemHandler(log, s.Catalog))
		r.Put("/vendor/items/{id}", handlers.UpdateVendorItemHandler(log, s.Catalog))
		r.Post("/vendor/items/{id}/toggle", handlers.ToggleVendorItemHandler(log, s.Catalog))
		r.Delete("/vendor/items/{id}", handlers.DeleteVendorItemHandler(log, s.Catalog))

		r.Post("/peer-items/{id}/approve", handlers.ApprovePeerItemHandler(log, s.PeerItems))
	})

	gated(policy.SuperuserOnly, func(r chi.Router) {
		r.Get(service.RedirectAdmin, handlers.PendingVendorsHandler(log, s.Admin))
		r.Post(service.RedirectAdmin+"/{id}/approve", handlers.ApproveVendorHandler(log, s.Admin))
		r.Post(service.RedirectAdmin+"/{id}/reject", handlers.RejectVendorHandler(log, s.Admin))
		r.Post("/categories", handlers.CreateCategoryHandler(log, s.Admin))
		r.Delete("/categories/{id}", handlers.DeleteCategoryHandler(log, s.Admin))
	})

	return router
}
