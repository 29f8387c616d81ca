// Package supervisor owns every long-running loop. Loops never spawn
// themselves; they are registered here so cancellation and shutdown
// have a single owner.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/bowerhall/willow/internal/logger"
)

const restartDelay = 5 * time.Second

// Loop is a long-running unit of work. Run must return promptly once
// ctx is cancelled; each wake should poll ctx before doing work.
type Loop interface {
	Name() string
	Run(ctx context.Context)
}

type Supervisor struct {
	loops []Loop
	wg    sync.WaitGroup
}

func New() *Supervisor {
	return &Supervisor{}
}

func (s *Supervisor) Add(loops ...Loop) {
	s.loops = append(s.loops, loops...)
}

// Start launches every registered loop. A panicking loop is logged and
// restarted after a short delay instead of taking the process down.
func (s *Supervisor) Start(ctx context.Context) {
	for _, l := range s.loops {
		s.wg.Add(1)
		go func(l Loop) {
			defer s.wg.Done()
			for {
				s.runOnce(ctx, l)

				select {
				case <-ctx.Done():
					logger.Debug("loop stopped", "loop", l.Name())
					return
				case <-time.After(restartDelay):
					logger.Warn("restarting loop", "loop", l.Name())
				}
			}
		}(l)
	}
}

func (s *Supervisor) runOnce(ctx context.Context, l Loop) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("loop panicked", "loop", l.Name(), "panic", r)
		}
	}()

	logger.Info("loop started", "loop", l.Name())
	l.Run(ctx)
}

// Wait blocks until every loop has exited.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
