package memory

import "database/sql"

const personaKey = "persona"

// SaveNote creates or replaces a note. Last writer wins.
func (s *Store) SaveNote(key, content string) error {
	return s.withRetry("save note", func() error {
		_, err := s.db.Exec(`
			INSERT INTO notes (key, content, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT(key) DO UPDATE SET
				content = excluded.content,
				updated_at = datetime('now')
		`, key, content)
		return err
	})
}

// GetNote returns a note's content, empty when absent.
func (s *Store) GetNote(key string) (string, error) {
	var content string
	err := s.withRetry("get note", func() error {
		err := s.db.QueryRow(`SELECT content FROM notes WHERE key = ?`, key).Scan(&content)
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	})
	return content, err
}

// SavePersona overwrites the single current persona description. The
// consolidation job is the usual writer; manual fact updates may also
// write it, with no merge.
func (s *Store) SavePersona(content string) error {
	return s.SaveNote(personaKey, content)
}

func (s *Store) Persona() (string, error) {
	return s.GetNote(personaKey)
}
