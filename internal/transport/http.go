package transport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"log/slog"
	"time"

	"whatsapp-broadcast/internal/app"
	"whatsapp-broadcast/internal/domain"
	"whatsapp-broadcast/internal/ports"

	"github.com/gofiber/fiber/v2"
)

// Handler holds the HTTP handlers for the broadcast service.
type Handler struct {
	orch  *app.Orchestrator
	store ports.SendLog
	log   *slog.Logger

	countryCode string
	areaCode    string
}

// NewHandler wires up a Handler with its dependencies. The phone codes are
// used to normalize incoming contact numbers before a run starts.
func NewHandler(orch *app.Orchestrator, store ports.SendLog, countryCode, areaCode string, log *slog.Logger) *Handler {
	return &Handler{
		orch:        orch,
		store:       store,
		log:         log,
		countryCode: countryCode,
		areaCode:    areaCode,
	}
}

// Register mounts all routes onto the given Fiber router.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/runs", h.StartRun)
	router.Get("/runs/progress", h.Progress)
	router.Post("/runs/cancel", h.Cancel)
	router.Get("/history", h.History)
	router.Get("/history/export", h.ExportHistory)
}

// ── Run control ───────────────────────────────────────────────────────────────

type contactPayload struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Phone string `json:"phone"`
}

type startRunRequest struct {
	BatchID  string           `json:"batch_id"`
	Template string           `json:"template"`
	Contacts []contactPayload `json:"contacts"`
}

type startRunResponse struct {
	RunID   string `json:"run_id"`
	Total   int    `json:"total"`
	Dropped int    `json:"dropped"`
}

// StartRun normalizes the submitted contacts and launches a background run.
//
// POST /api/runs
// Body: { "batch_id": "...", "template": "...", "contacts": [{"name","group","phone"}, ...] }
func (h *Handler) StartRun(c *fiber.Ctx) error {
	var req startRunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.BatchID == "" || len(req.Contacts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "batch_id and contacts are required"})
	}

	// A phone cell may hold several numbers; each valid token becomes its
	// own batch entry. Tokens with too few digits are dropped, not errors.
	var batch []domain.Contact
	dropped := 0
	for _, ct := range req.Contacts {
		for _, token := range domain.SplitNumbers(ct.Phone) {
			number, ok := domain.NormalizeNumber(token, h.countryCode, h.areaCode)
			if !ok {
				dropped++
				continue
			}
			batch = append(batch, domain.Contact{
				DisplayName: ct.Name,
				GroupLabel:  ct.Group,
				Number:      number,
			})
		}
	}

	if len(batch) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no valid phone numbers in batch"})
	}

	runID, err := h.orch.StartRun(batch, req.Template, req.BatchID)
	if errors.Is(err, domain.ErrRunActive) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a send run is already active"})
	}
	if err != nil {
		h.log.Error("start run", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusAccepted).JSON(startRunResponse{
		RunID:   runID,
		Total:   len(batch),
		Dropped: dropped,
	})
}

type progressResponse struct {
	RunID     string `json:"run_id"`
	IsRunning bool   `json:"is_running"`
	Total     int    `json:"total"`
	Sent      int    `json:"sent_count"`
	Failed    int    `json:"failed_count"`
	Skipped   int    `json:"skipped_count"`
	Current   string `json:"current_recipient"`
	Status    string `json:"status_message"`
	Error     string `json:"error_message"`
}

// Progress returns a snapshot of the active run, safe to poll.
//
// GET /api/runs/progress
func (h *Handler) Progress(c *fiber.Ctx) error {
	p := h.orch.Progress()
	return c.JSON(progressResponse{
		RunID:     p.RunID,
		IsRunning: p.Running,
		Total:     p.Total,
		Sent:      p.Sent,
		Failed:    p.Failed,
		Skipped:   p.Skipped,
		Current:   p.Current,
		Status:    p.Status,
		Error:     p.Error,
	})
}

// Cancel flags the active run to stop at its next iteration boundary.
//
// POST /api/runs/cancel
func (h *Handler) Cancel(c *fiber.Ctx) error {
	if h.orch.RequestCancel() {
		return c.JSON(fiber.Map{"status": "cancelled"})
	}
	return c.JSON(fiber.Map{"status": "no_active_run"})
}

// ── Send log ──────────────────────────────────────────────────────────────────

type historyRow struct {
	Timestamp   string `json:"timestamp"`
	BatchID     string `json:"batch_id"`
	DisplayName string `json:"display_name"`
	GroupLabel  string `json:"group_label"`
	Recipient   string `json:"recipient"`
	Outcome     string `json:"outcome"`
	Message     string `json:"rendered_message"`
}

// History returns the full send log in append order.
//
// GET /api/history
func (h *Handler) History(c *fiber.Ctx) error {
	recs, err := h.store.ListAll(c.Context())
	if err != nil {
		h.log.Error("list send log", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	rows := make([]historyRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, historyRow{
			Timestamp:   r.Timestamp.Format(time.DateTime),
			BatchID:     r.BatchID,
			DisplayName: r.DisplayName,
			GroupLabel:  r.GroupLabel,
			Recipient:   r.Recipient,
			Outcome:     string(r.Outcome),
			Message:     r.Message,
		})
	}
	return c.JSON(rows)
}

// ExportHistory returns the send log as a CSV download.
//
// GET /api/history/export
func (h *Handler) ExportHistory(c *fiber.Ctx) error {
	recs, err := h.store.ListAll(c.Context())
	if err != nil {
		h.log.Error("list send log", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"timestamp", "batch_id", "display_name", "group_label", "recipient", "outcome", "rendered_message"})
	for _, r := range recs {
		_ = w.Write([]string{
			r.Timestamp.Format(time.DateTime),
			r.BatchID,
			r.DisplayName,
			r.GroupLabel,
			r.Recipient,
			string(r.Outcome),
			r.Message,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("write csv", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="send_log.csv"`)
	return c.Send(buf.Bytes())
}
