// Package agent runs the heartbeat: wake at a random interval, look at
// what the store knows, ask the model for one decision, act on it, and
// go back to sleep.
package agent

import (
	"context"
	"math/rand"
	"time"

	"github.com/bowerhall/willow/internal/alerts"
	"github.com/bowerhall/willow/internal/config"
	"github.com/bowerhall/willow/internal/decision"
	"github.com/bowerhall/willow/internal/llm"
	"github.com/bowerhall/willow/internal/lock"
	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/memory"
	"github.com/bowerhall/willow/internal/notify"
	"github.com/bowerhall/willow/internal/vector"
)

type Agent struct {
	store    *memory.Store
	router   *vector.Router
	model    llm.LLM
	notifier notify.Notifier
	locker   lock.Trigger
	alerter  *alerts.Alerter
	cfg      config.HeartbeatConfig
	triggers []string
	location *time.Location
	rng      *rand.Rand
}

type Options struct {
	Store    *memory.Store
	Router   *vector.Router
	Model    llm.LLM
	Notifier notify.Notifier
	Locker   lock.Trigger
	Alerter  *alerts.Alerter
	Config   config.HeartbeatConfig
	Triggers []string
	Location *time.Location
}

func New(opts Options) *Agent {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Agent{
		store:    opts.Store,
		router:   opts.Router,
		model:    opts.Model,
		notifier: opts.Notifier,
		locker:   opts.Locker,
		alerter:  opts.Alerter,
		cfg:      opts.Config,
		triggers: opts.Triggers,
		location: loc,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *Agent) Name() string { return "heartbeat" }

func (a *Agent) Run(ctx context.Context) {
	for {
		sleep := a.nextSleep()
		logger.Debug("heartbeat sleeping", "duration", sleep)

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}

		// a long sleep may have outlived the process; check again
		// before spending an LLM call
		if ctx.Err() != nil {
			return
		}

		a.cycle(ctx)
	}
}

func (a *Agent) nextSleep() time.Duration {
	span := a.cfg.MaxSleep - a.cfg.MinSleep
	if span <= 0 {
		return a.cfg.MinSleep
	}
	return a.cfg.MinSleep + time.Duration(a.rng.Int63n(int64(span)))
}

func (a *Agent) cycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	snap := a.gather(cycleCtx)

	system, user := a.buildPrompt(snap)

	raw, err := a.model.Chat(cycleCtx, system, []llm.Message{{Role: "user", Content: user}})
	if err != nil {
		logger.Error("heartbeat model call failed", "error", err)
		if a.alerter != nil {
			a.alerter.Warn("heartbeat", "model call failed", err)
		}
		return
	}

	d := decision.Parse(raw)
	logger.Info("heartbeat decision", "action", d.Kind.String())

	a.act(cycleCtx, d)
}

func (a *Agent) act(ctx context.Context, d decision.Decision) {
	switch d.Kind {
	case decision.KindLock:
		if err := a.locker.Trigger(ctx, d.Reason); err != nil {
			logger.Error("lock trigger failed", "error", err)
			if a.alerter != nil {
				a.alerter.Critical("heartbeat", "lock could not be delivered", err)
			}
		}
		if _, err := a.store.Insert(ctx, "Device locked", d.Reason, "episodic", "", nil); err != nil {
			logger.Error("failed to record lock", "error", err)
		}

	case decision.KindMessage:
		if err := a.notifier.Send(ctx, "Willow", d.Text); err != nil {
			logger.Error("message delivery failed", "error", err)
		}
		if _, err := a.store.Insert(ctx, "Reached out", d.Text, "episodic", d.Mood, []string{"interaction"}); err != nil {
			logger.Error("failed to record message", "error", err)
		}

	default:
		logger.Debug("heartbeat passed")
	}
}
