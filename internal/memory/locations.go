package memory

import (
	"database/sql"
	"time"
)

// InsertLocation appends a resolved location sample.
func (s *Store) InsertLocation(address, remark string, battery, lat, lon *float64) (*LocationSample, error) {
	var id int64
	err := s.withRetry("insert location", func() error {
		result, err := s.db.Exec(
			`INSERT INTO locations (address, remark, battery, lat, lon) VALUES (?, ?, ?, ?, ?)`,
			address, remark, battery, lat, lon,
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

	return &LocationSample{
		ID:        id,
		Address:   address,
		Remark:    remark,
		Battery:   battery,
		Lat:       lat,
		Lon:       lon,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// LatestLocation returns the newest sample, nil when none exist.
func (s *Store) LatestLocation() (*LocationSample, error) {
	var sample *LocationSample
	err := s.withRetry("latest location", func() error {
		row := s.db.QueryRow(
			`SELECT id, address, remark, battery, lat, lon, created_at
			 FROM locations ORDER BY created_at DESC, id DESC LIMIT 1`)

		var loc LocationSample
		var battery, lat, lon sql.NullFloat64
		err := row.Scan(&loc.ID, &loc.Address, &loc.Remark, &battery, &lat, &lon, &loc.CreatedAt)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		if battery.Valid {
			loc.Battery = &battery.Float64
		}
		if lat.Valid {
			loc.Lat = &lat.Float64
		}
		if lon.Valid {
			loc.Lon = &lon.Float64
		}

		sample = &loc
		return nil
	})
	return sample, err
}

// PruneLocations deletes samples older than the window.
func (s *Store) PruneLocations(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02 15:04:05")

	var deleted int64
	err := s.withRetry("prune locations", func() error {
		result, err := s.db.Exec(`DELETE FROM locations WHERE created_at < ?`, cutoff)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}
