package vector

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

const chromemCollection = "memories"

// ChromemIndex is the pure-Go backend, useful when the sqlite-vec
// extension is unavailable. A single collection holds every entry; room
// scoping uses a metadata filter.
type ChromemIndex struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.Mutex
}

func NewChromemIndex(persistPath string) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error

	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemIndex{db: db, col: col}, nil
}

func (c *ChromemIndex) Upsert(ctx context.Context, id int64, embedding []float32, meta Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := chromem.Document{
		ID:        strconv.FormatInt(id, 10),
		Content:   meta.Text,
		Embedding: embedding,
		Metadata: map[string]string{
			"title": meta.Title,
			"date":  meta.Date,
			"mood":  meta.Mood,
			"room":  meta.Room,
		},
	}

	return c.col.AddDocument(ctx, doc)
}

func (c *ChromemIndex) Query(ctx context.Context, embedding []float32, topK int, room string) ([]Match, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	var where map[string]string
	if room != "" {
		where = map[string]string{"room": room}
	}

	results, err := c.col.QueryEmbedding(ctx, embedding, topK, where, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		id, err := strconv.ParseInt(res.ID, 10, 64)
		if err != nil {
			continue
		}

		matches = append(matches, Match{
			ID:    id,
			Score: float64(res.Similarity),
			Meta: Metadata{
				Text:  res.Content,
				Title: res.Metadata["title"],
				Date:  res.Metadata["date"],
				Mood:  res.Metadata["mood"],
				Room:  res.Metadata["room"],
			},
		})
	}

	return matches, nil
}

func (c *ChromemIndex) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.col.Delete(ctx, nil, nil, strconv.FormatInt(id, 10))
}
