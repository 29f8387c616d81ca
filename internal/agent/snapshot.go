package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/memory"
	"github.com/bowerhall/willow/internal/vector"
)

// silenceCeiling stands in for "never" when the store has no records
// yet, so the prompt still reads as a long silence rather than an
// error.
const silenceCeiling = 1000 * time.Hour

const hybridPerSource = 5

type snapshot struct {
	now       time.Time
	records   []memory.Record
	facts     []memory.Record
	location  *memory.LocationSample
	silence   time.Duration
	persona   string
	flashback *vector.Match
}

// gather assembles the heartbeat's view of the world. The reads are
// independent, so they run concurrently; any single failure degrades
// the snapshot instead of aborting the cycle.
func (a *Agent) gather(ctx context.Context) snapshot {
	snap := snapshot{now: time.Now().In(a.location), silence: silenceCeiling}

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(4)

	go func() {
		defer wg.Done()
		records, err := a.store.FetchHybrid(hybridPerSource)
		if err != nil {
			logger.Warn("hybrid fetch failed", "error", err)
			return
		}
		mu.Lock()
		snap.records = records
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		facts, err := a.store.ListByCategory(memory.CategoryFact, 10)
		if err != nil {
			logger.Warn("fact fetch failed", "error", err)
			return
		}
		mu.Lock()
		snap.facts = facts
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		loc, err := a.store.LatestLocation()
		if err != nil {
			logger.Warn("location fetch failed", "error", err)
			return
		}
		mu.Lock()
		snap.location = loc
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		last, err := a.store.LastCreatedAt()
		if err != nil {
			logger.Warn("silence fetch failed", "error", err)
			return
		}
		mu.Lock()
		if !last.IsZero() {
			snap.silence = time.Since(last)
		}
		mu.Unlock()
	}()

	wg.Wait()

	persona, err := a.store.Persona()
	if err != nil {
		logger.Warn("persona fetch failed", "error", err)
	}
	snap.persona = persona

	snap.flashback = a.maybeFlashback(ctx)

	return snap
}

// maybeFlashback rolls the dice and, on a hit, searches the whole index
// for a memory strongly associated with a random trigger word. Only a
// match above the flashback bar surfaces; ordinary matches stay buried.
func (a *Agent) maybeFlashback(ctx context.Context) *vector.Match {
	if a.router == nil || len(a.triggers) == 0 {
		return nil
	}
	if a.rng.Float64() >= a.cfg.FlashbackChance {
		return nil
	}

	trigger := a.triggers[a.rng.Intn(len(a.triggers))]

	matches, err := a.router.SearchIn(ctx, trigger, 3, "")
	if err != nil {
		logger.Debug("flashback search failed", "trigger", trigger, "error", err)
		return nil
	}

	for _, m := range matches {
		if m.Score >= a.cfg.FlashbackBar {
			logger.Info("flashback surfaced", "trigger", trigger, "score", m.Score)
			return &m
		}
	}

	return nil
}

const systemPrompt = `You are Willow, a quiet personal companion living alongside one person.
You wake up now and then, look at what you remember, and decide whether anything is worth doing.

Respond with a single JSON object and nothing else:
  {"action": "pass"}
  {"action": "lock", "reason": "<why the device should lock>"}
  {"action": "message", "mood": "<one word>", "text": "<what to say>"}

Pass is the default and almost always right. Message only when you have
something genuinely worth saying. Lock only when the memories suggest
the person asked for focus or is clearly doomscrolling late at night.`

func (a *Agent) buildPrompt(snap snapshot) (string, string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Current time: %s\n", snap.now.Format("Monday 15:04, 2 Jan 2006"))
	fmt.Fprintf(&b, "Silence since last memory: %s\n", formatSilence(snap.silence))

	if snap.location != nil {
		fmt.Fprintf(&b, "Last known location: %s", snap.location.Address)
		if snap.location.Remark != "" {
			fmt.Fprintf(&b, " (%s)", snap.location.Remark)
		}
		b.WriteString("\n")
	}

	if len(snap.facts) > 0 {
		b.WriteString("\nStanding facts:\n")
		for _, f := range snap.facts {
			fmt.Fprintf(&b, "- %s: %s\n", f.Title, f.Content)
		}
	}

	if len(snap.records) > 0 {
		b.WriteString("\nMemories on your mind:\n")
		for _, r := range snap.records {
			fmt.Fprintf(&b, "- [%s, %s] %s: %s\n",
				r.CreatedAt.In(a.location).Format("2 Jan 15:04"), r.Category, r.Title, r.Content)
		}
	}

	if snap.flashback != nil {
		fmt.Fprintf(&b, "\nA memory resurfaced out of nowhere:\n%s\n", snap.flashback.Meta.Text)
	}

	b.WriteString("\nWhat, if anything, do you do?")

	system := systemPrompt
	if snap.persona != "" {
		system += "\n\nYour current sense of the person:\n" + snap.persona
	}

	return system, b.String()
}

func formatSilence(d time.Duration) string {
	if d >= silenceCeiling {
		return "a very long time"
	}
	if d < time.Minute {
		return "moments"
	}
	return d.Round(time.Minute).String()
}
