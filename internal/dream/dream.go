// Package dream runs the nightly consolidation: one model call over
// the day's records produces a summary, an updated persona and a per
// room digest, then old low-weight records are purged.
package dream

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bowerhall/willow/internal/alerts"
	"github.com/bowerhall/willow/internal/config"
	"github.com/bowerhall/willow/internal/llm"
	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/memory"
)

const (
	purgeBelow      = 4
	purgeAfter      = 48 * time.Hour
	locationsExpiry = 72 * time.Hour
)

type Dreamer struct {
	store    *memory.Store
	model    llm.LLM
	alerter  *alerts.Alerter
	cfg      config.DreamConfig
	location *time.Location
}

func New(store *memory.Store, model llm.LLM, alerter *alerts.Alerter, cfg config.DreamConfig, location *time.Location) *Dreamer {
	if location == nil {
		location = time.Local
	}
	return &Dreamer{store: store, model: model, alerter: alerter, cfg: cfg, location: location}
}

func (d *Dreamer) Name() string { return "dream" }

// Run consolidates yesterday if the process slept through the schedule,
// then hands the timing over to cron until ctx is cancelled.
func (d *Dreamer) Run(ctx context.Context) {
	d.catchUp(ctx)

	c := cron.New(cron.WithLocation(d.location))
	spec := fmt.Sprintf("0 %d * * *", d.cfg.Hour)

	_, err := c.AddFunc(spec, func() {
		yesterday := time.Now().In(d.location).AddDate(0, 0, -1)
		if err := d.DreamFor(ctx, yesterday); err != nil {
			logger.Error("dream failed", "error", err)
			if d.alerter != nil {
				d.alerter.Warn("dream", "nightly consolidation failed", err)
			}
		}
	})
	if err != nil {
		logger.Error("dream schedule invalid", "spec", spec, "error", err)
		return
	}

	c.Start()
	<-ctx.Done()
	c.Stop()
}

func (d *Dreamer) catchUp(ctx context.Context) {
	yesterday := time.Now().In(d.location).AddDate(0, 0, -1)
	if err := d.DreamFor(ctx, yesterday); err != nil {
		logger.Error("dream catch-up failed", "error", err)
	}
}

// DreamFor consolidates a single day. The summary record's title doubles
// as the idempotency marker, so re-running for a day already dreamt is a
// no-op.
func (d *Dreamer) DreamFor(ctx context.Context, day time.Time) error {
	date := day.In(d.location).Format("2006-01-02")
	marker := "Daily summary " + date

	done, err := d.store.HasRecordTitled(marker)
	if err != nil {
		return fmt.Errorf("check dream marker: %w", err)
	}
	if done {
		logger.Debug("already dreamt", "date", date)
		return nil
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, d.location)
	records, err := d.store.GetByTimeRange(start, start.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("fetch day records: %w", err)
	}

	// an empty day leaves no marker, so a late-arriving backfill for
	// that day can still be dreamt
	if len(records) == 0 {
		logger.Debug("nothing to dream about", "date", date)
		return nil
	}

	persona, err := d.store.Persona()
	if err != nil {
		return fmt.Errorf("fetch persona: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	defer cancel()

	raw, err := d.model.Chat(callCtx, dreamSystemPrompt, []llm.Message{
		{Role: "user", Content: buildDreamPrompt(date, persona, records)},
	})
	if err != nil {
		return fmt.Errorf("dream model call: %w", err)
	}

	result, err := parseDream(raw)
	if err != nil {
		return fmt.Errorf("dream output unusable: %w", err)
	}

	if _, err := d.store.Insert(ctx, marker, result.Summary, "emotion", "", nil); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	if len(result.Rooms) > 0 {
		if _, err := d.store.Insert(ctx, "Room index "+date, formatRooms(result.Rooms), "idea", "", nil); err != nil {
			return fmt.Errorf("persist room index: %w", err)
		}
	}

	if strings.TrimSpace(result.Persona) != "" {
		if err := d.store.SavePersona(result.Persona); err != nil {
			return fmt.Errorf("persist persona: %w", err)
		}
	}

	logger.Info("dreamt", "date", date, "records", len(records))

	d.housekeep(ctx)
	return nil
}

// housekeep runs only after a successful dream, so nothing is forgotten
// before it had a chance to be consolidated.
func (d *Dreamer) housekeep(ctx context.Context) {
	purged, err := d.store.Purge(ctx, purgeBelow, purgeAfter)
	if err != nil {
		logger.Error("purge failed", "error", err)
	} else if purged > 0 {
		logger.Info("purged light memories", "count", purged)
	}

	pruned, err := d.store.PruneLocations(locationsExpiry)
	if err != nil {
		logger.Error("location prune failed", "error", err)
	} else if pruned > 0 {
		logger.Debug("pruned locations", "count", pruned)
	}
}

const dreamSystemPrompt = `You are the night process of Willow, a personal companion.
Read one day of memory records and consolidate them.

Respond with a single JSON object and nothing else:
{
  "summary": "<a few sentences capturing the day and its emotional shape>",
  "persona": "<an updated description of the person, building on the previous one>",
  "rooms": {"<room>": "<one line on what that room gained today>", ...}
}

Only include rooms that actually gained something. Keep the persona
stable; change it only where the day gave real evidence.`

func buildDreamPrompt(date, persona string, records []memory.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Day: %s\n", date)

	if persona != "" {
		fmt.Fprintf(&b, "\nPrevious persona:\n%s\n", persona)
	}

	b.WriteString("\nRecords:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- [%s, weight %d] %s: %s", r.Category, r.Importance, r.Title, r.Content)
		if r.Mood != "" {
			fmt.Fprintf(&b, " (mood: %s)", r.Mood)
		}
		b.WriteString("\n")
	}

	return b.String()
}

type dreamResult struct {
	Summary string            `json:"summary"`
	Persona string            `json:"persona"`
	Rooms   map[string]string `json:"rooms"`
}

// parseDream rejects output it cannot use before anything is written,
// keeping the marker unset so the night can be retried.
func parseDream(raw string) (*dreamResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in output")
	}

	var result dreamResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Summary) == "" {
		return nil, fmt.Errorf("empty summary")
	}

	return &result, nil
}

func formatRooms(rooms map[string]string) string {
	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, rooms[name])
	}
	return strings.TrimRight(b.String(), "\n")
}
