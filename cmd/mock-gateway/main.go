package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// mockSendRequest mirrors what the evolution client posts to sendText.
type mockSendRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// Local stand-in for an Evolution API gateway. Serves the two endpoints the
// broadcast server uses so the whole send path can be exercised offline.
// MOCK_STATE switches the reported session state; MOCK_FAIL_EVERY makes every
// Nth send return HTTP 500 to exercise failure outcomes.
func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	addr := getenv("HTTP_ADDR", ":8081")
	state := getenv("MOCK_STATE", "connected")
	failEvery, _ := strconv.Atoi(getenv("MOCK_FAIL_EVERY", "0"))

	fiberApp := fiber.New(fiber.Config{AppName: "mock-gateway", DisableStartupMessage: true})

	fiberApp.Get("/instance/connectionState/:instance", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"instance": fiber.Map{
				"instanceName": c.Params("instance"),
				"state":        state,
			},
		})
	})

	received := 0
	fiberApp.Post("/message/sendText/:instance", func(c *fiber.Ctx) error {
		var req mockSendRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		received++
		if failEvery > 0 && received%failEvery == 0 {
			log.Warn("mock gateway injecting failure", "number", req.Number, "n", received)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "injected failure"})
		}

		messageID := uuid.New().String()
		log.Info("mock gateway received message",
			"instance", c.Params("instance"),
			"number", req.Number,
			"message_id", messageID,
		)
		return c.JSON(fiber.Map{"key": fiber.Map{"id": messageID}, "status": "PENDING"})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("mock-gateway listening", "addr", addr, "state", state)
		if err := fiberApp.Listen(addr); err != nil {
			log.Error("fiber listen", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down mock-gateway")
	_ = fiberApp.Shutdown()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
