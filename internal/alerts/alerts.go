// Package alerts rate-limits operational failure notifications so a
// flapping dependency surfaces once per cooldown window, not once per
// heartbeat cycle.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/bowerhall/willow/internal/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

type NotifyFunc func(message string)

type alertKey struct {
	component string
	message   string
}

// Alerter deduplicates alerts per component+message. The notify call
// runs outside the lock, so one slow delivery cannot stall other
// callers.
type Alerter struct {
	mu       sync.Mutex
	notify   NotifyFunc
	lastSent map[alertKey]time.Time
	cooldown time.Duration
}

func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	return &Alerter{
		notify:   notify,
		lastSent: make(map[alertKey]time.Time),
		cooldown: cooldown,
	}
}

func (a *Alerter) Alert(severity Severity, component, message string, err error) {
	if a.notify == nil {
		return
	}

	key := alertKey{component: component, message: message}

	a.mu.Lock()
	if last, ok := a.lastSent[key]; ok && time.Since(last) < a.cooldown {
		a.mu.Unlock()
		logger.Debug("alert suppressed", "component", component, "message", message)
		return
	}
	a.lastSent[key] = time.Now()
	a.mu.Unlock()

	text := fmt.Sprintf("[%s] %s: %s", severity, component, message)
	if err != nil {
		text += "\n" + err.Error()
	}

	a.notify(text)
	logger.Info("alert sent", "component", component, "severity", severity.String())
}

func (a *Alerter) Critical(component, message string, err error) {
	a.Alert(SeverityCritical, component, message, err)
}

func (a *Alerter) Warn(component, message string, err error) {
	a.Alert(SeverityWarn, component, message, err)
}
