package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"whatsapp-broadcast/internal/domain"
	"whatsapp-broadcast/internal/ports"

	"github.com/google/uuid"
)

// Options tune a run's pacing and quota behaviour.
type Options struct {
	// DailyLimit caps successful sends per calendar day across all runs.
	DailyLimit int
	// SendDelay is the pause after every attempt that reached the gateway.
	SendDelay time.Duration
	// PauseAfterSkip also applies SendDelay after quota/dedup skips, matching
	// gateways that count any batch activity against abuse limits.
	PauseAfterSkip bool
}

// Orchestrator drives send runs: one background run at a time, paced against
// the daily quota, deduplicated per batch, cancellable between attempts, with
// every outcome appended to the send log. Start, progress and cancel are safe
// to call from any goroutine.
type Orchestrator struct {
	store   ports.SendLog
	gateway ports.GatewayClient
	log     *slog.Logger
	opts    Options

	mu        sync.Mutex
	progress  domain.RunProgress
	cancelled bool
}

// NewOrchestrator wires the orchestrator with its collaborators.
func NewOrchestrator(store ports.SendLog, gateway ports.GatewayClient, log *slog.Logger, opts Options) *Orchestrator {
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = 50
	}
	return &Orchestrator{
		store:   store,
		gateway: gateway,
		log:     log,
		opts:    opts,
	}
}

// StartRun launches a background run over batch and returns immediately with
// the run ID. Returns domain.ErrRunActive when a run is already executing;
// the check and the transition to running happen under one lock, so two
// concurrent starts cannot both win.
func (o *Orchestrator) StartRun(batch []domain.Contact, template, batchID string) (string, error) {
	if len(batch) == 0 {
		return "", domain.ErrEmptyBatch
	}
	if template == "" {
		template = domain.DefaultTemplate
	}

	o.mu.Lock()
	if o.progress.Running {
		o.mu.Unlock()
		return "", domain.ErrRunActive
	}
	runID := uuid.New().String()
	o.progress = domain.RunProgress{
		RunID:   runID,
		Running: true,
		Total:   len(batch),
		Status:  "starting",
	}
	o.cancelled = false
	o.mu.Unlock()

	o.log.Info("run started", "run_id", runID, "batch_id", batchID, "total", len(batch))
	go o.run(batch, template, batchID)
	return runID, nil
}

// RequestCancel flags the active run to stop at the next iteration boundary.
// Returns false when no run is active. An in-flight gateway call is never
// interrupted.
func (o *Orchestrator) RequestCancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progress.Running {
		return false
	}
	o.cancelled = true
	return true
}

// Progress returns a consistent snapshot of the current run state.
func (o *Orchestrator) Progress() domain.RunProgress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

func (o *Orchestrator) run(batch []domain.Contact, template, batchID string) {
	ctx := context.Background()

	connected, err := o.gateway.CheckSession(ctx)
	if !connected {
		msg := "gateway session not connected, pair the device and try again"
		if err != nil {
			msg = fmt.Sprintf("gateway session check failed: %v", err)
		}
		o.update(func(p *domain.RunProgress) {
			p.Running = false
			p.Status = "aborted"
			p.Error = msg
		})
		o.log.Error("run aborted", "batch_id", batchID, "reason", msg)
		return
	}

	// Seeded once per run; incremented locally on each success. Safe because
	// only one run writes SENT rows at a time.
	sentToday, err := o.store.CountSentToday(ctx)
	if err != nil {
		o.log.Warn("count sent today failed, assuming zero", "err", err)
		sentToday = 0
	}

	for i, contact := range batch {
		if o.isCancelled() {
			o.update(func(p *domain.RunProgress) {
				p.Running = false
				p.Status = "cancelled by user"
			})
			o.log.Info("run cancelled", "batch_id", batchID, "processed", i)
			return
		}

		o.update(func(p *domain.RunProgress) {
			p.Current = contact.Number
			p.Status = fmt.Sprintf("sending %d of %d", i+1, len(batch))
		})

		if sentToday >= o.opts.DailyLimit {
			o.record(ctx, batchID, contact, domain.OutcomeSkippedQuota, "")
			o.update(func(p *domain.RunProgress) { p.Skipped++ })
			o.pauseAfterSkip()
			continue
		}

		dup, err := o.store.HasSentInBatch(ctx, batchID, contact.Number)
		if err != nil {
			o.log.Warn("dedup query failed, treating recipient as new", "recipient", contact.Number, "err", err)
			dup = false
		}
		if dup {
			o.record(ctx, batchID, contact, domain.OutcomeSkippedDuplicate, "")
			o.update(func(p *domain.RunProgress) { p.Skipped++ })
			o.pauseAfterSkip()
			continue
		}

		text := domain.RenderMessage(template, contact.DisplayName, contact.GroupLabel)

		res, err := o.gateway.SendText(ctx, contact.Number, text)
		switch {
		case err != nil:
			o.update(func(p *domain.RunProgress) { p.Failed++ })
			o.record(ctx, batchID, contact, domain.OutcomeFailedException, err.Error())
			o.log.Warn("send failed", "recipient", contact.Number, "err", err)
		case res.StatusCode == http.StatusOK:
			sentToday++
			o.update(func(p *domain.RunProgress) { p.Sent++ })
			o.record(ctx, batchID, contact, domain.OutcomeSent, text)
		default:
			o.update(func(p *domain.RunProgress) { p.Failed++ })
			o.record(ctx, batchID, contact, domain.FailedOutcome(res.StatusCode), text)
			o.log.Warn("send rejected", "recipient", contact.Number, "status", res.StatusCode)
		}

		// Pacing is unconditional for attempts that reached the gateway.
		time.Sleep(o.opts.SendDelay)
	}

	o.update(func(p *domain.RunProgress) {
		p.Running = false
		p.Current = ""
		p.Status = "completed"
	})
	o.log.Info("run completed", "batch_id", batchID)
}

// record appends one log row. A failed write cannot be retried into the
// audit trail, so it is surfaced on the progress error field and logged; the
// run itself continues.
func (o *Orchestrator) record(ctx context.Context, batchID string, c domain.Contact, outcome domain.Outcome, message string) {
	rec := domain.SendRecord{
		Timestamp:   time.Now(),
		BatchID:     batchID,
		DisplayName: c.DisplayName,
		GroupLabel:  c.GroupLabel,
		Recipient:   c.Number,
		Outcome:     outcome,
		Message:     message,
	}
	if err := o.store.Append(ctx, rec); err != nil {
		o.log.Error("append send record", "recipient", c.Number, "outcome", outcome, "err", err)
		o.update(func(p *domain.RunProgress) {
			p.Error = fmt.Sprintf("log write failed for %s: %v", c.Number, err)
		})
	}
}

func (o *Orchestrator) update(fn func(*domain.RunProgress)) {
	o.mu.Lock()
	fn(&o.progress)
	o.mu.Unlock()
}

func (o *Orchestrator) isCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

func (o *Orchestrator) pauseAfterSkip() {
	if o.opts.PauseAfterSkip {
		time.Sleep(o.opts.SendDelay)
	}
}
