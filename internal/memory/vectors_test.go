package memory

import (
	"context"
	"testing"
	"time"

	"github.com/bowerhall/willow/internal/embedder"
	"github.com/bowerhall/willow/internal/vector"
)

func openVectorStore(t *testing.T) *Store {
	t.Helper()

	s := openTestStore(t)
	s.SetEmbedder(embedder.NewMock(8))
	s.SetIndex(NewVecIndex(s))
	return s
}

func countVecRows(t *testing.T, s *Store) int {
	t.Helper()

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM vec_memories`).Scan(&n); err != nil {
		t.Fatalf("count vec rows: %v", err)
	}
	return n
}

func TestInsertMirrorsHeavyRecordsOnly(t *testing.T) {
	s := openVectorStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "light", "c", "stream", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n := countVecRows(t, s); n != 0 {
		t.Errorf("stream record mirrored, vec rows = %d", n)
	}

	if _, err := s.Insert(ctx, "threshold", "c", "episodic", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(ctx, "heavy", "c", "fact", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n := countVecRows(t, s); n != 2 {
		t.Errorf("vec rows = %d, want 2 (importance >= 4)", n)
	}
}

func TestVecQueryRoundTrip(t *testing.T) {
	s := openVectorStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "the lighthouse trip", "walked to the lighthouse at dusk", "episodic", "content", nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// embed the exact indexed text; identical text must come back first
	// with similarity ~1
	emb, err := s.embedder.Embed(ctx, composeText(rec))
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	matches, err := s.index.Query(ctx, vector.Normalize(emb), 3, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(matches) == 0 {
		t.Fatal("no matches for indexed text")
	}
	if matches[0].ID != rec.ID {
		t.Errorf("top match id = %d, want %d", matches[0].ID, rec.ID)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("identical text scored %f, want ~1.0", matches[0].Score)
	}
	if matches[0].Meta.Room != string(RoomLibrary) {
		t.Errorf("room = %s, want library", matches[0].Meta.Room)
	}
}

func TestVecQueryScopesByRoom(t *testing.T) {
	s := openVectorStore(t)
	ctx := context.Background()

	fact, err := s.Insert(ctx, "allergy", "allergic to peanuts", "fact", "", nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	feeling, err := s.Insert(ctx, "restless", "could not sleep again", "emotion", "low", nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	emb, err := s.embedder.Embed(ctx, composeText(fact))
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	emb = vector.Normalize(emb)

	kitchen, err := s.index.Query(ctx, emb, 10, string(RoomKitchen))
	if err != nil {
		t.Fatalf("query kitchen: %v", err)
	}
	for _, m := range kitchen {
		if m.ID == feeling.ID {
			t.Error("bedroom record leaked into kitchen search")
		}
	}
	if len(kitchen) != 1 || kitchen[0].ID != fact.ID {
		t.Errorf("kitchen matches = %+v, want only the fact", kitchen)
	}

	everywhere, err := s.index.Query(ctx, emb, 10, "")
	if err != nil {
		t.Fatalf("query unscoped: %v", err)
	}
	if len(everywhere) != 2 {
		t.Errorf("unscoped matches = %d, want 2", len(everywhere))
	}
}

func TestVecQueryRoomMatchBelowGlobalTopK(t *testing.T) {
	s := openTestStore(t)
	idx := NewVecIndex(s)
	ctx := context.Background()

	axis := make([]float32, 8)
	axis[0] = 1

	// five living-room entries hug the query vector; the only kitchen
	// entry ranks behind all of them globally
	for i := 0; i < 5; i++ {
		rec, err := s.Insert(ctx, "noise", "c", "stream", "", nil)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		v := make([]float32, 8)
		v[0] = 1
		v[1] = 0.01 * float32(i+1)
		if err := idx.Upsert(ctx, rec.ID, vector.Normalize(v), vector.Metadata{}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	fact, err := s.Insert(ctx, "allergy", "allergic to peanuts", "fact", "", nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	far := make([]float32, 8)
	far[0] = 1
	far[1] = 1
	if err := idx.Upsert(ctx, fact.ID, vector.Normalize(far), vector.Metadata{}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := idx.Query(ctx, axis, 2, string(RoomKitchen))
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if len(matches) != 1 || matches[0].ID != fact.ID {
		t.Fatalf("kitchen matches = %+v, want the fact despite its global rank", matches)
	}
}

func TestPurgeRemovesVectorEntries(t *testing.T) {
	s := openVectorStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "old feeling", "c", "episodic", "", nil)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	backdate(t, s, rec.ID, "-3 days")

	if _, err := s.Purge(ctx, 7, 48*time.Hour); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if n := countVecRows(t, s); n != 0 {
		t.Errorf("vec rows = %d after purge, want 0", n)
	}
}

func TestReindexRebuildsEligibleRecords(t *testing.T) {
	s := openVectorStore(t)
	ctx := context.Background()

	if _, err := s.Insert(ctx, "a fact", "c", "fact", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(ctx, "noise", "c", "stream", "", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := s.DB().Exec(`DELETE FROM vec_memories`); err != nil {
		t.Fatalf("clear: %v", err)
	}

	n, err := s.Reindex(ctx)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if n != 1 {
		t.Errorf("reindexed %d records, want 1", n)
	}
	if rows := countVecRows(t, s); rows != 1 {
		t.Errorf("vec rows = %d after reindex, want 1", rows)
	}
}
