package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"license-key-service/internal/config"
	"license-key-service/internal/database"
	"license-key-service/internal/handler"
	"license-key-service/internal/logger"
	"license-key-service/internal/metrics"
	"license-key-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Open(cfg.DatabasePath, zl, cfg.IsProduction())
	if err != nil {
		zl.Fatal("failed to open database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apps := service.NewApplicationService(db, zl)
	keys := service.NewLicenseService(db, apps, zl)
	audit := service.NewAuditService(db)

	sheet, err := service.NewSheetSyncService(ctx, cfg.SheetsEnabled, cfg.SheetsCredentials,
		cfg.SheetsSpreadsheet, cfg.SheetsName, zl)
	if err != nil {
		zl.Fatal("failed to init sheet sync", zap.Error(err))
	}
	if sheet != nil {
		keys.SetSyncer(sheet)
	}

	h := handler.New(apps, keys, audit, sheet, metrics.New(), handler.AdminAuth{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       []byte(cfg.JWTSecret),
		TokenTTL:     cfg.TokenTTL,
	}, zl)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handler.ErrorHandler(zl),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	handler.SetupRoutes(app, h, cfg.RateLimitMax)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		return app.Listen(cfg.HTTPAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		return
	}
	zl.Info("server stopped")
}
