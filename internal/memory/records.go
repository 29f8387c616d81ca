package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bowerhall/willow/internal/logger"
	"github.com/bowerhall/willow/internal/vector"
)

const recordColumns = `id, title, content, category, mood, tags, importance, hits, last_accessed, created_at`

// Insert normalizes the category, derives importance from the weight
// table, auto-tags when no tags are supplied, persists the record and
// mirrors it into the vector index when heavy enough.
func (s *Store) Insert(ctx context.Context, title, content, category, mood string, tags []string) (*Record, error) {
	cat := NormalizeCategory(category)
	importance := ImportanceFor(cat)

	if len(tags) == 0 {
		tags = s.deriveTags(title, content)
	}

	var id int64
	err := s.withRetry("insert memory", func() error {
		result, err := s.db.Exec(
			`INSERT INTO memories (title, content, category, mood, tags, importance)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			title, content, string(cat), mood, strings.Join(tags, ","), importance,
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:         id,
		Title:      title,
		Content:    content,
		Category:   cat,
		Mood:       mood,
		Tags:       tags,
		Importance: importance,
		CreatedAt:  time.Now().UTC(),
	}

	if importance >= s.mirrorAt {
		s.mirror(ctx, rec)
	}

	return rec, nil
}

// mirror embeds the record and upserts it into the vector index. Index
// trouble never fails the insert.
func (s *Store) mirror(ctx context.Context, rec *Record) {
	if s.embedder == nil || s.index == nil {
		return
	}

	text := composeText(rec)

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("embedding failed, record not indexed", "id", rec.ID, "error", err)
		return
	}

	meta := vector.Metadata{
		Text:  text,
		Title: rec.Title,
		Date:  rec.CreatedAt.Format("2006-01-02"),
		Mood:  rec.Mood,
		Room:  string(RoomFor(rec.Category)),
	}

	if err := s.index.Upsert(ctx, rec.ID, vector.Normalize(embedding), meta); err != nil {
		logger.Warn("vector upsert failed", "id", rec.ID, "error", err)
	}
}

func composeText(rec *Record) string {
	return rec.Title + "\n" + rec.Content + "\n" + rec.Mood
}

func (s *Store) Get(id int64) (*Record, error) {
	var rec *Record
	err := s.withRetry("get memory", func() error {
		row := s.db.QueryRow(`SELECT `+recordColumns+` FROM memories WHERE id = ?`, id)
		r, err := scanRecord(row)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

// FetchHybrid unions the top records by importance, by hits and by
// recency of access, deduplicated by id and ordered by creation time so
// the result reads chronologically.
func (s *Store) FetchHybrid(perSource int) ([]Record, error) {
	queries := []string{
		`SELECT ` + recordColumns + ` FROM memories ORDER BY importance DESC, created_at DESC LIMIT ?`,
		`SELECT ` + recordColumns + ` FROM memories ORDER BY hits DESC, created_at DESC LIMIT ?`,
		`SELECT ` + recordColumns + ` FROM memories WHERE last_accessed IS NOT NULL ORDER BY last_accessed DESC LIMIT ?`,
	}

	seen := make(map[int64]bool)
	var merged []Record

	for _, q := range queries {
		var batch []Record
		err := s.withRetry("fetch hybrid", func() error {
			rows, err := s.db.Query(q, perSource)
			if err != nil {
				return err
			}
			defer rows.Close()
			batch, err = scanRecords(rows)
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, rec := range batch {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				merged = append(merged, rec)
			}
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	return merged, nil
}

// Touch bumps the hit counter and access time. Callers that found the
// record during a search run this in a goroutine, off the read path.
func (s *Store) Touch(id int64) error {
	return s.withRetry("touch memory", func() error {
		_, err := s.db.Exec(
			`UPDATE memories SET hits = hits + 1, last_accessed = datetime('now') WHERE id = ?`,
			id,
		)
		return err
	})
}

// Purge deletes records below the importance cutoff that are older than
// the window, removing their vector entries first.
func (s *Store) Purge(ctx context.Context, importanceBelow int, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02 15:04:05")

	var ids []int64
	err := s.withRetry("purge select", func() error {
		rows, err := s.db.Query(
			`SELECT id FROM memories WHERE importance < ? AND created_at < ?`,
			importanceBelow, cutoff,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		return 0, err
	}

	if len(ids) == 0 {
		return 0, nil
	}

	if s.index != nil {
		for _, id := range ids {
			if err := s.index.Delete(ctx, id); err != nil {
				logger.Debug("vector delete failed", "id", id, "error", err)
			}
		}
	}

	var deleted int64
	err = s.withRetry("purge delete", func() error {
		result, err := s.db.Exec(
			`DELETE FROM memories WHERE importance < ? AND created_at < ?`,
			importanceBelow, cutoff,
		)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

// LastCreatedAt returns the newest record's timestamp, zero when the
// store is empty. Selecting the column directly keeps its DATETIME
// declaration; an aggregate would come back as a bare string.
func (s *Store) LastCreatedAt() (time.Time, error) {
	var last time.Time
	err := s.withRetry("last created", func() error {
		var ts time.Time
		err := s.db.QueryRow(
			`SELECT created_at FROM memories ORDER BY created_at DESC, id DESC LIMIT 1`,
		).Scan(&ts)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		last = ts
		return nil
	})
	return last, err
}

func (s *Store) GetByTimeRange(since, until time.Time) ([]Record, error) {
	var records []Record
	err := s.withRetry("records by range", func() error {
		rows, err := s.db.Query(
			`SELECT `+recordColumns+` FROM memories WHERE created_at >= ? AND created_at < ? ORDER BY created_at ASC`,
			since.UTC().Format("2006-01-02 15:04:05"), until.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		records, err = scanRecords(rows)
		return err
	})
	return records, err
}

func (s *Store) ListByCategory(cat Category, limit int) ([]Record, error) {
	var records []Record
	err := s.withRetry("records by category", func() error {
		rows, err := s.db.Query(
			`SELECT `+recordColumns+` FROM memories WHERE category = ? ORDER BY created_at DESC LIMIT ?`,
			string(cat), limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		records, err = scanRecords(rows)
		return err
	})
	return records, err
}

// HasRecordTitled reports whether any record carries the exact title.
// The consolidation job keys its idempotency on this.
func (s *Store) HasRecordTitled(title string) (bool, error) {
	var count int
	err := s.withRetry("count by title", func() error {
		return s.db.QueryRow(`SELECT COUNT(*) FROM memories WHERE title = ?`, title).Scan(&count)
	})
	return count > 0, err
}

// Reindex rebuilds the vector entry for every record at or above the
// mirror threshold.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	if s.embedder == nil || s.index == nil {
		return 0, fmt.Errorf("reindex: no vector backend configured")
	}

	var records []Record
	err := s.withRetry("reindex select", func() error {
		rows, err := s.db.Query(
			`SELECT `+recordColumns+` FROM memories WHERE importance >= ?`, s.mirrorAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		records, err = scanRecords(rows)
		return err
	})
	if err != nil {
		return 0, err
	}

	for i := range records {
		s.mirror(ctx, &records[i])
	}

	return len(records), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var category, tags string
	var lastAccessed sql.NullTime

	err := row.Scan(&rec.ID, &rec.Title, &rec.Content, &category, &rec.Mood, &tags,
		&rec.Importance, &rec.Hits, &lastAccessed, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Category = Category(category)
	if tags != "" {
		rec.Tags = strings.Split(tags, ",")
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		rec.LastAccessed = &t
	}

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
