package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bowerhall/willow/internal/logger"
)

// Notifier is the push-notification capability.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Fanout delivers to every configured transport, returning the first
// failure after trying them all.
type Fanout struct {
	targets []Notifier
}

func NewFanout(targets ...Notifier) *Fanout {
	return &Fanout{targets: targets}
}

func (f *Fanout) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, t := range f.targets {
		if err := t.Send(ctx, title, text); err != nil {
			logger.Error("notification delivery failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

type timeoutNotifier struct {
	inner   Notifier
	timeout time.Duration
}

// WithTimeout bounds every Send with its own deadline, for callers that
// fire notifications outside a request context.
func WithTimeout(inner Notifier, timeout time.Duration) Notifier {
	return &timeoutNotifier{inner: inner, timeout: timeout}
}

func (n *timeoutNotifier) Send(ctx context.Context, title, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.inner.Send(ctx, title, text)
}

// LogNotifier writes notifications to the log, for development runs
// without a configured transport.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, title, text string) error {
	logger.Info("notification", "title", title, "text", text)
	return nil
}

type Config struct {
	TelegramToken  string
	TelegramChatID int64
	DiscordToken   string
	DiscordChannel string
}

// New assembles the configured transports. With none configured it
// falls back to the log notifier.
func New(cfg Config) (Notifier, error) {
	var targets []Notifier

	if cfg.TelegramToken != "" {
		tg, err := newTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		targets = append(targets, tg)
	}

	if cfg.DiscordToken != "" {
		dc, err := newDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			return nil, fmt.Errorf("discord: %w", err)
		}
		targets = append(targets, dc)
	}

	switch len(targets) {
	case 0:
		logger.Warn("no notification transport configured, logging only")
		return LogNotifier{}, nil
	case 1:
		return targets[0], nil
	default:
		return NewFanout(targets...), nil
	}
}
