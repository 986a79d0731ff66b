package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-broadcast/internal/adapters/db/sqlite"
	"whatsapp-broadcast/internal/adapters/gateway/evolution"
	"whatsapp-broadcast/internal/app"
	"whatsapp-broadcast/internal/config"
	"whatsapp-broadcast/internal/middleware"
	"whatsapp-broadcast/internal/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("application failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	conf, err := config.FromEnv()
	if err != nil {
		return err
	}

	store, err := sqlite.New(conf.DatabasePath)
	if err != nil {
		return fmt.Errorf("open send log: %w", err)
	}
	defer store.Close()

	gateway := evolution.New(conf.GatewayURL, conf.GatewayAPIKey, conf.GatewayInstance, conf.CheckTimeout, conf.SendTimeout)

	orch := app.NewOrchestrator(store, gateway, log, app.Options{
		DailyLimit:     conf.DailyLimit,
		SendDelay:      conf.SendDelay,
		PauseAfterSkip: conf.PauseAfterSkip,
	})

	fiberApp := fiber.New(fiber.Config{
		AppName:               "broadcast-server",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		ServerHeader:          "",
		BodyLimit:             1 * 1024 * 1024,
	})

	fiberApp.Use(recover.New(recover.Config{EnableStackTrace: true}))
	fiberApp.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${method} ${path} ${latency}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	fiberApp.Use(middleware.RequestID())
	fiberApp.Use(middleware.SecurityHeaders())
	fiberApp.Use(middleware.CORS(conf.AllowedOrigins))
	fiberApp.Use(middleware.RateLimit(100, 1*time.Minute))

	fiberApp.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	handler := transport.NewHandler(orch, store, conf.CountryCode, conf.AreaCode, log)
	api := fiberApp.Group("/api")
	handler.Register(api)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("broadcast-server started", "addr", conf.HTTPAddr, "daily_limit", conf.DailyLimit, "send_delay", conf.SendDelay.String())
		if err := fiberApp.Listen(conf.HTTPAddr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("broadcast-server stopped gracefully")
	return nil
}
