// Package lock wraps the device-lock capability: fire-and-forget
// webhook with a notification fallback when the device is unreachable.
package lock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/notify"
)

type Trigger interface {
	Trigger(ctx context.Context, reason string) error
}

type webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) Trigger {
	return &webhook{url: url, client: http.DefaultClient}
}

func (w *webhook) Trigger(ctx context.Context, reason string) error {
	payload, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("lock webhook error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

type withFallback struct {
	inner    Trigger
	notifier notify.Notifier
}

// WithFallback notifies the user when the lock trigger itself fails,
// so the intent is never silently dropped.
func WithFallback(inner Trigger, notifier notify.Notifier) Trigger {
	return &withFallback{inner: inner, notifier: notifier}
}

func (f *withFallback) Trigger(ctx context.Context, reason string) error {
	if f.inner != nil {
		if err := f.inner.Trigger(ctx, reason); err == nil {
			return nil
		} else {
			logger.Warn("lock trigger failed, falling back to notification", "error", err)
		}
	}

	return f.notifier.Send(ctx, "Device lock requested", reason)
}
