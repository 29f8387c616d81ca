package agent

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bowerhall/willow/internal/config"
	"github.com/bowerhall/willow/internal/llm"
	"github.com/bowerhall/willow/internal/memory"
	"github.com/bowerhall/willow/internal/vector"
)

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error) {
	return s.reply, s.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) Send(ctx context.Context, title, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

type recordingLocker struct {
	mu      sync.Mutex
	reasons []string
}

func (l *recordingLocker) Trigger(ctx context.Context, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons = append(l.reasons, reason)
	return nil
}

type fixedIndex struct {
	matches []vector.Match
}

func (f *fixedIndex) Upsert(ctx context.Context, id int64, embedding []float32, meta vector.Metadata) error {
	return nil
}

func (f *fixedIndex) Query(ctx context.Context, embedding []float32, topK int, room string) ([]vector.Match, error) {
	return f.matches, nil
}

func (f *fixedIndex) Delete(ctx context.Context, id int64) error { return nil }

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func openTestStore(t *testing.T) *memory.Store {
	t.Helper()

	s, err := memory.OpenDimensions(":memory:", 8)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAgent(t *testing.T, s *memory.Store, model llm.LLM) (*Agent, *recordingNotifier, *recordingLocker) {
	t.Helper()

	notifier := &recordingNotifier{}
	locker := &recordingLocker{}

	a := New(Options{
		Store:    s,
		Model:    model,
		Notifier: notifier,
		Locker:   locker,
		Config: config.HeartbeatConfig{
			MinSleep:        time.Minute,
			MaxSleep:        2 * time.Minute,
			FlashbackChance: 0,
			FlashbackBar:    0.75,
			CallTimeout:     5 * time.Second,
		},
		Location: time.UTC,
	})

	return a, notifier, locker
}

func TestGatherReportsLongSilenceOnEmptyStore(t *testing.T) {
	s := openTestStore(t)
	a, _, _ := testAgent(t, s, &stubLLM{})

	snap := a.gather(context.Background())
	if snap.silence != silenceCeiling {
		t.Errorf("silence = %v, want the ceiling on an empty store", snap.silence)
	}

	if _, err := s.Insert(context.Background(), "t", "c", "stream", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	snap = a.gather(context.Background())
	if snap.silence >= silenceCeiling {
		t.Errorf("silence = %v after an insert, want a real duration", snap.silence)
	}
}

func TestGatherCollectsFactsAndLocation(t *testing.T) {
	s := openTestStore(t)
	a, _, _ := testAgent(t, s, &stubLLM{})

	if _, err := s.Insert(context.Background(), "coffee", "two cups max", "fact", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.InsertLocation("harbour walk", "", nil, nil, nil); err != nil {
		t.Fatalf("insert location: %v", err)
	}
	if err := s.SavePersona("early riser"); err != nil {
		t.Fatalf("persona: %v", err)
	}

	snap := a.gather(context.Background())

	if len(snap.facts) != 1 || snap.facts[0].Title != "coffee" {
		t.Errorf("facts = %+v", snap.facts)
	}
	if snap.location == nil || snap.location.Address != "harbour walk" {
		t.Errorf("location = %+v", snap.location)
	}
	if snap.persona != "early riser" {
		t.Errorf("persona = %q", snap.persona)
	}

	_, user := a.buildPrompt(snap)
	if !strings.Contains(user, "harbour walk") || !strings.Contains(user, "two cups max") {
		t.Errorf("prompt missing snapshot data:\n%s", user)
	}
}

func TestCycleMessageDecision(t *testing.T) {
	s := openTestStore(t)
	a, notifier, _ := testAgent(t, s, &stubLLM{
		reply: `{"action": "message", "mood": "warm", "text": "saw the forecast, bring a coat"}`,
	})

	a.cycle(context.Background())

	if len(notifier.sent) != 1 || notifier.sent[0] != "saw the forecast, bring a coat" {
		t.Fatalf("sent = %v", notifier.sent)
	}

	records, err := s.ListByCategory(memory.CategoryEpisodic, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Reached out" {
		t.Fatalf("records = %+v, want the message logged", records)
	}
	if records[0].Mood != "warm" {
		t.Errorf("mood = %q", records[0].Mood)
	}
	if len(records[0].Tags) != 1 || records[0].Tags[0] != "interaction" {
		t.Errorf("tags = %v, want [interaction]", records[0].Tags)
	}
}

func TestCycleLockDecision(t *testing.T) {
	s := openTestStore(t)
	a, _, locker := testAgent(t, s, &stubLLM{
		reply: `{"action": "lock", "reason": "midnight scrolling"}`,
	})

	a.cycle(context.Background())

	if len(locker.reasons) != 1 || locker.reasons[0] != "midnight scrolling" {
		t.Fatalf("lock reasons = %v", locker.reasons)
	}

	records, err := s.ListByCategory(memory.CategoryEpisodic, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Device locked" {
		t.Errorf("records = %+v, want the lock logged", records)
	}
}

func TestCycleMalformedOutputIsQuiet(t *testing.T) {
	s := openTestStore(t)
	a, notifier, locker := testAgent(t, s, &stubLLM{reply: "hmm, nothing comes to mind"})

	a.cycle(context.Background())

	if len(notifier.sent) != 0 {
		t.Errorf("sent = %v, want silence", notifier.sent)
	}
	if len(locker.reasons) != 0 {
		t.Errorf("locked with reasons %v", locker.reasons)
	}

	records, err := s.FetchHybrid(10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("pass left records behind: %+v", records)
	}
}

func TestNextSleepStaysBounded(t *testing.T) {
	s := openTestStore(t)
	a, _, _ := testAgent(t, s, &stubLLM{})

	for i := 0; i < 200; i++ {
		d := a.nextSleep()
		if d < time.Minute || d >= 2*time.Minute {
			t.Fatalf("sleep %v outside [1m, 2m)", d)
		}
	}
}

func TestMaybeFlashbackHonoursBar(t *testing.T) {
	s := openTestStore(t)

	strong := vector.NewRouter(&fixedIndex{matches: []vector.Match{
		{ID: 7, Score: 0.9, Meta: vector.Metadata{Text: "the lighthouse at dusk"}},
	}}, fixedEmbedder{}, 0)

	weak := vector.NewRouter(&fixedIndex{matches: []vector.Match{
		{ID: 7, Score: 0.5},
	}}, fixedEmbedder{}, 0)

	a, _, _ := testAgent(t, s, &stubLLM{})
	a.cfg.FlashbackChance = 1
	a.triggers = []string{"rain"}

	a.router = strong
	if fb := a.maybeFlashback(context.Background()); fb == nil || fb.ID != 7 {
		t.Error("strong association did not surface")
	}

	a.router = weak
	if fb := a.maybeFlashback(context.Background()); fb != nil {
		t.Error("weak association surfaced as a flashback")
	}
}
