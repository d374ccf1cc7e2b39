// README: Entry point; loads config, applies migrations, wires services and serves HTTP until signalled.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sewaalat/internal/config"
	httpapi "sewaalat/internal/http"
	"sewaalat/internal/infra"
	"sewaalat/internal/maps"
	"sewaalat/internal/modules/catalog"
	"sewaalat/internal/modules/location"
	"sewaalat/internal/modules/order"
	"sewaalat/internal/modules/pricing"
	"sewaalat/internal/modules/upload"
	"sewaalat/internal/modules/user"
	"sewaalat/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	if err := migrations.Apply(ctx, dbPool); err != nil {
		return err
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	tokens, err := infra.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	rates, err := pricing.LoadRateTable(cfg.Pricing.RatesFile)
	if err != nil {
		return err
	}
	pricingSvc := pricing.NewService(rates)

	// Address lookup stays disabled without a Maps key.
	locationSvc := location.NewService(nil)
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocodeService(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			return err
		}
		locationSvc = location.NewService(geocoder)
	}

	catalogSvc := catalog.NewService(
		catalog.NewStore(dbPool),
		catalog.NewCache(redisClient, cfg.Redis.CacheTTL),
		logger,
	)

	userSvc := user.NewService(user.NewStore(dbPool), tokens)
	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := userSvc.EnsureAdmin(ctx, user.Credentials{Username: cfg.Admin.Username, Password: cfg.Admin.Password}); err != nil {
			return err
		}
		logger.Info("admin account ready", "username", cfg.Admin.Username)
	}

	orderSvc := order.NewService(order.NewStore(dbPool), pricingSvc, nil, logger)

	docs, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	handler := httpapi.NewRouter(httpapi.RouterDeps{
		Products:     catalogSvc,
		Auth:         userSvc,
		Quoter:       pricingSvc,
		Locator:      locationSvc,
		Orders:       orderSvc,
		AdminOrders:  orderSvc,
		Documents:    docs,
		Verifier:     tokens,
		UploadDir:    docs.Dir(),
		MaxBodyBytes: cfg.Upload.MaxBytes,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		Logger:       logger,
	})

	return httpapi.NewServer(cfg.HTTP.Addr, handler, logger).Run(ctx)
}
