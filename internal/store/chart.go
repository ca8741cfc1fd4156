package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/taala/internal/chart"
)

// ChartInfo is a listing entry for a stored chart.
type ChartInfo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	NoteCount  int       `json:"note_count"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChartRepository provides CRUD operations for charts. Charts are stored as
// their raw JSON document and re-validated on every load.
type ChartRepository struct {
	db *sql.DB
}

// Charts returns the chart repository for this store.
func (s *Store) Charts() *ChartRepository {
	return &ChartRepository{db: s.db}
}

// Save validates and stores a chart document. An existing chart with the
// same id is replaced.
func (r *ChartRepository) Save(raw []byte) (*chart.Chart, error) {
	c, err := chart.Parse(raw)
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(
		`INSERT INTO charts (id, title, note_count, duration_ms, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   note_count = excluded.note_count,
		   duration_ms = excluded.duration_ms,
		   data = excluded.data`,
		c.ID, c.Title, len(c.Notes), c.DurationMs(), string(raw), time.Now(),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Get retrieves and parses a chart by its id.
func (r *ChartRepository) Get(id string) (*chart.Chart, error) {
	raw, err := r.GetRaw(id)
	if err != nil {
		return nil, err
	}
	return chart.Parse(raw)
}

// GetRaw retrieves the stored JSON document of a chart.
func (r *ChartRepository) GetRaw(id string) ([]byte, error) {
	var data string
	err := r.db.QueryRow(`SELECT data FROM charts WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(data), nil
}

// List retrieves metadata for all stored charts, newest first.
func (r *ChartRepository) List() ([]*ChartInfo, error) {
	rows, err := r.db.Query(
		`SELECT id, title, note_count, duration_ms, created_at
		 FROM charts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var charts []*ChartInfo
	for rows.Next() {
		info := &ChartInfo{}
		if err := rows.Scan(&info.ID, &info.Title, &info.NoteCount, &info.DurationMs, &info.CreatedAt); err != nil {
			return nil, err
		}
		charts = append(charts, info)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return charts, nil
}

// Delete removes a chart by its id.
func (r *ChartRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM charts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
