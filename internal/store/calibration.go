package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayusman/taala/internal/calib"
)

// Calibration is one committed calibration profile.
type Calibration struct {
	ID        int64
	Profile   *calib.Profile
	Residual  float64
	PairCount int
	CreatedAt time.Time
}

// CalibrationRepository stores committed calibration profiles. Profiles are
// append-only; loading always returns the newest one, so a bad calibration
// is undone by committing another.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Save stores a profile along with the residual it solved at and the number
// of point pairs used.
func (r *CalibrationRepository) Save(p *calib.Profile, residual float64, pairCount int) (int64, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Exec(
		`INSERT INTO calibrations (profile, residual, pair_count, created_at)
		 VALUES (?, ?, ?, ?)`,
		string(data), residual, pairCount, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Latest returns the most recently saved calibration, or ErrNotFound when
// none has ever been committed.
func (r *CalibrationRepository) Latest() (*Calibration, error) {
	c := &Calibration{}
	var data string

	err := r.db.QueryRow(
		`SELECT id, profile, residual, pair_count, created_at
		 FROM calibrations ORDER BY id DESC LIMIT 1`,
	).Scan(&c.ID, &data, &c.Residual, &c.PairCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p := &calib.Profile{}
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, err
	}
	c.Profile = p
	return c, nil
}
