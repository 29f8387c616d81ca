package memory

import (
	"context"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"

	"github.com/bowerhall/willow/internal/vector"
)

// vecIndex is the default vector backend: a vec0 virtual table in the
// same database, joined back to memories on id. Room scoping filters on
// the record category, so rooms never exist as a storage partition.
type vecIndex struct {
	s *Store
}

// NewVecIndex returns the sqlite-vec backend bound to this store.
func NewVecIndex(s *Store) vector.Index {
	return &vecIndex{s: s}
}

func (v *vecIndex) Upsert(ctx context.Context, id int64, embedding []float32, meta vector.Metadata) error {
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return err
	}

	// vec0 has no native upsert
	if _, err := v.s.db.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, id); err != nil {
		return err
	}

	_, err = v.s.db.ExecContext(ctx, `INSERT INTO vec_memories (memory_id, embedding) VALUES (?, ?)`, id, blob)
	return err
}

func (v *vecIndex) Query(ctx context.Context, embedding []float32, topK int, room string) ([]vector.Match, error) {
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, err
	}

	q := `
		SELECT m.id, m.title, m.content, m.category, m.mood, m.created_at, v.distance
		FROM vec_memories v
		JOIN memories m ON v.memory_id = m.id
		WHERE v.embedding MATCH ?
		  AND k = ?`

	// vec0 ranks globally before SQLite applies the category filter, so
	// a scoped query over-fetches to keep in-room matches that rank
	// below the global top-k
	k := topK
	if room != "" {
		k = topK * 4
	}
	args := []any{blob, k}

	if room != "" {
		cats := CategoriesForRoom(Room(room))
		if len(cats) > 0 {
			placeholders := strings.Repeat("?,", len(cats))
			q += fmt.Sprintf(" AND m.category IN (%s)", placeholders[:len(placeholders)-1])
			for _, c := range cats {
				args = append(args, string(c))
			}
		}
	}

	q += ` ORDER BY v.distance`

	rows, err := v.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []vector.Match
	for rows.Next() {
		var rec Record
		var category string
		var distance float64

		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Content, &category, &rec.Mood, &rec.CreatedAt, &distance); err != nil {
			return nil, err
		}
		rec.Category = Category(category)

		matches = append(matches, vector.Match{
			ID: rec.ID,
			// embeddings are unit vectors, so L2 distance maps to
			// cosine similarity as 1 - d²/2
			Score: 1 - distance*distance/2,
			Meta: vector.Metadata{
				Text:  composeText(&rec),
				Title: rec.Title,
				Date:  rec.CreatedAt.Format("2006-01-02"),
				Mood:  rec.Mood,
				Room:  string(RoomFor(rec.Category)),
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

func (v *vecIndex) Delete(ctx context.Context, id int64) error {
	_, err := v.s.db.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, id)
	return err
}
