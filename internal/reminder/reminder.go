// Package reminder polls the store for due reminders and delivers
// them. Delivery text may be paraphrased by the model; the literal
// content is always the fallback.
package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/bowerhall/willow/internal/config"
	"github.com/bowerhall/willow/internal/llm"
	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/memory"
	"github.com/bowerhall/willow/internal/notify"
)

type Runner struct {
	store    *memory.Store
	model    llm.LLM
	notifier notify.Notifier
	cfg      config.ReminderConfig
	location *time.Location
}

func New(store *memory.Store, model llm.LLM, notifier notify.Notifier, cfg config.ReminderConfig, location *time.Location) *Runner {
	if location == nil {
		location = time.Local
	}
	return &Runner{store: store, model: model, notifier: notifier, cfg: cfg, location: location}
}

func (r *Runner) Name() string { return "reminders" }

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx, time.Now().In(r.location))
		}
	}
}

func (r *Runner) tick(ctx context.Context, now time.Time) {
	due, err := r.store.DueReminders(now, r.cfg.Tolerance)
	if err != nil {
		logger.Error("reminder poll failed", "error", err)
		return
	}

	for _, rem := range due {
		r.fire(ctx, rem, now)
	}
}

// fireTimeout bounds one delivery, paraphrase included, well inside
// the poll interval.
const fireTimeout = 30 * time.Second

func (r *Runner) fire(ctx context.Context, rem memory.Reminder, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, fireTimeout)
	defer cancel()

	text := r.deliveryText(ctx, rem)

	if err := r.notifier.Send(ctx, "Reminder", text); err != nil {
		// leave the reminder unmarked; it stays scheduled and fires
		// at its next HH:MM occurrence
		logger.Error("reminder delivery failed", "id", rem.ID, "error", err)
		return
	}

	if _, err := r.store.Insert(ctx, "Reminder delivered", rem.Content, "stream", "", []string{"reminder"}); err != nil {
		logger.Error("failed to record reminder delivery", "id", rem.ID, "error", err)
	}

	if rem.Repeat {
		if err := r.store.MarkReminderFired(rem.ID, now); err != nil {
			logger.Error("failed to mark reminder fired", "id", rem.ID, "error", err)
		}
	} else {
		if err := r.store.DeleteReminder(rem.ID); err != nil {
			logger.Error("failed to delete one-shot reminder", "id", rem.ID, "error", err)
		}
	}

	logger.Info("reminder fired", "id", rem.ID, "repeat", rem.Repeat)
}

// deliveryText asks the model to say the reminder in Willow's voice.
// Any model trouble falls back to the stored content verbatim.
func (r *Runner) deliveryText(ctx context.Context, rem memory.Reminder) string {
	if !r.cfg.Paraphrase || r.model == nil {
		return rem.Content
	}

	raw, err := r.model.Chat(ctx,
		"You are Willow, a warm personal companion. Rephrase the reminder below as one short, natural sentence addressed to the person. Reply with the sentence only.",
		[]llm.Message{{Role: "user", Content: rem.Content}},
	)
	if err != nil {
		logger.Debug("reminder paraphrase failed, sending literal", "error", err)
		return rem.Content
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return rem.Content
	}
	return text
}
