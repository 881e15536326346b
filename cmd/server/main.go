package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/print-shop/internal/app"
	"github.com/linemk/print-shop/internal/config"
	"github.com/linemk/print-shop/internal/lib/logger"
	"github.com/linemk/print-shop/internal/lib/media"
	"github.com/linemk/print-shop/internal/payment"
	"github.com/linemk/print-shop/internal/service"
	"github.com/linemk/print-shop/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// подключения к БД и Redis
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	processor, err := newProcessor(log, cfg.Payment)
	if err != nil {
		panic(errors.Wrap(err, "failed to configure payment provider"))
	}

	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		panic(errors.Wrapf(err, "failed to create media dir %s", cfg.Media.Dir))
	}
	documents := media.NewStore(cfg.Media.Dir)

	// слои по работе с хранилищами
	userRepo := storage.NewUserRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	vendorItemRepo := storage.NewVendorItemRepository(application.DB)
	peerItemRepo := storage.NewPeerItemRepository(application.DB)
	printOrderRepo := storage.NewPrintOrderRepository(application.DB)
	shopOrderRepo := storage.NewShopOrderRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	deliveryRepo := storage.NewDeliveryRepository(application.Redis)

	tokenTTL := time.Duration(cfg.JWT.TokenTTL) * time.Minute
	services := app.Services{
		Auth:        service.NewAuthService(log, userRepo, deliveryRepo, cfg.JWT.Secret, tokenTTL),
		PrintOrders: service.NewPrintOrderService(log, printOrderRepo, userRepo, documents, service.NewRandomPicker()),
		Catalog:     service.NewCatalogService(log, vendorItemRepo, categoryRepo),
		PeerItems:   service.NewPeerItemService(log, peerItemRepo),
		Carts:       service.NewCartService(log, cartRepo, vendorItemRepo, deliveryRepo, cfg.Checkout.DeliveryTTL),
		ShopOrders:  service.NewShopOrderService(log, shopOrderRepo, peerItemRepo),
		Checkout: service.NewCheckoutService(log, application.DB, shopOrderRepo, cartRepo, deliveryRepo, processor, service.CheckoutConfig{
			BaseURL:  cfg.Site.BaseURL,
			Currency: cfg.Payment.Currency,
		}),
		Admin:     service.NewAdminService(log, userRepo, categoryRepo),
		Dashboard: service.NewDashboardService(log, printOrderRepo, shopOrderRepo),
		Users:     userRepo,
		Documents: documents,
	}

	router := app.NewRouter(log, app.RouterConfig{
		JWTSecret:      cfg.JWT.Secret,
		LoginPath:      cfg.Site.LoginPath,
		MaxUploadBytes: cfg.Media.MaxUploadMB << 20,
	}, services)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}

// newProcessor выбирает платёжную систему по конфигурации
func newProcessor(log *slog.Logger, cfg config.PaymentConfig) (payment.Processor, error) {
	switch cfg.Provider {
	case "stripe":
		return payment.NewStripeClient(log, cfg.BaseURL, cfg.SecretKey, cfg.Timeout), nil
	case "fake":
		log.Warn("using in-memory payment provider, every session is paid")
		return payment.NewFake(), nil
	}
	return nil, errors.Errorf("unknown payment provider %q", cfg.Provider)
}
