package memory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const reminderColumns = `id, time_of_day, content, repeat, paused, last_fired_date, last_fired_at, created_at`

// AddReminder validates the HH:MM time and persists a new reminder.
func (s *Store) AddReminder(timeOfDay, content string, repeat bool) (*Reminder, error) {
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return nil, fmt.Errorf("invalid time of day %q: expected HH:MM", timeOfDay)
	}

	id := uuid.NewString()

	err := s.withRetry("add reminder", func() error {
		_, err := s.db.Exec(
			`INSERT INTO reminders (id, time_of_day, content, repeat) VALUES (?, ?, ?, ?)`,
			id, timeOfDay, content, repeat,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Reminder{
		ID:        id,
		TimeOfDay: timeOfDay,
		Content:   content,
		Repeat:    repeat,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Store) DeleteReminder(id string) error {
	return s.withRetry("delete reminder", func() error {
		_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
		return err
	})
}

func (s *Store) PauseReminder(id string) error {
	return s.setReminderPaused(id, true)
}

func (s *Store) ResumeReminder(id string) error {
	return s.setReminderPaused(id, false)
}

func (s *Store) setReminderPaused(id string, paused bool) error {
	return s.withRetry("set reminder paused", func() error {
		_, err := s.db.Exec(`UPDATE reminders SET paused = ? WHERE id = ?`, paused, id)
		return err
	})
}

func (s *Store) ListReminders() ([]Reminder, error) {
	var reminders []Reminder
	err := s.withRetry("list reminders", func() error {
		rows, err := s.db.Query(`SELECT ` + reminderColumns + ` FROM reminders ORDER BY time_of_day ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		reminders, err = scanReminders(rows)
		return err
	})
	return reminders, err
}

// DueReminders returns non-paused reminders matching the current local
// HH:MM that have not fired today. The tolerance window guards against
// a double fire when the process restarts within the same minute.
func (s *Store) DueReminders(now time.Time, tolerance time.Duration) ([]Reminder, error) {
	hhmm := now.Format("15:04")
	today := now.Format("2006-01-02")

	var candidates []Reminder
	err := s.withRetry("due reminders", func() error {
		rows, err := s.db.Query(
			`SELECT `+reminderColumns+` FROM reminders
			 WHERE paused = 0 AND time_of_day = ? AND last_fired_date != ?`,
			hhmm, today,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		candidates, err = scanReminders(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	due := candidates[:0]
	for _, r := range candidates {
		if r.LastFiredAt != nil && now.Sub(*r.LastFiredAt) < tolerance {
			continue
		}
		due = append(due, r)
	}

	return due, nil
}

// MarkReminderFired stamps the firing. One-shot reminders are deleted
// by the caller instead.
func (s *Store) MarkReminderFired(id string, now time.Time) error {
	return s.withRetry("mark reminder fired", func() error {
		_, err := s.db.Exec(
			`UPDATE reminders SET last_fired_date = ?, last_fired_at = ? WHERE id = ?`,
			now.Format("2006-01-02"), now.UTC().Format("2006-01-02 15:04:05"), id,
		)
		return err
	})
}

func scanReminders(rows *sql.Rows) ([]Reminder, error) {
	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var lastFiredAt sql.NullTime

		err := rows.Scan(&r.ID, &r.TimeOfDay, &r.Content, &r.Repeat, &r.Paused,
			&r.LastFiredDate, &lastFiredAt, &r.CreatedAt)
		if err != nil {
			return nil, err
		}

		if lastFiredAt.Valid {
			t := lastFiredAt.Time
			r.LastFiredAt = &t
		}

		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}
