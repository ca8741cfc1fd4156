package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/taala/internal/chart"
	"github.com/ayusman/taala/internal/score"
	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/timeline"
)

// SessionRecord is one stored run result.
type SessionRecord struct {
	ID         string        `json:"id"`
	ChartID    string        `json:"chart_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	Summary    score.Summary `json:"summary"`
}

// SessionRepository stores finished run results and their per-note grade
// sequences.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Save stores a finished run, including its resolution sequence. The write
// is transactional; a half-saved run never exists.
func (r *SessionRepository) Save(result session.Result) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (id, chart_id, started_at, duration_ms, score,
		   max_combo, perfects, greats, goods, misses, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.SessionID, result.ChartID, result.StartedAt, result.DurationMs,
		result.Summary.Score, result.Summary.MaxCombo,
		result.Summary.Perfects, result.Summary.Greats,
		result.Summary.Goods, result.Summary.Misses,
		result.Summary.Accuracy,
	)
	if err != nil {
		return err
	}

	for i, res := range result.Resolutions {
		_, err = tx.Exec(
			`INSERT INTO session_resolutions (session_id, sequence, note_id, grade, delta_ms)
			 VALUES (?, ?, ?, ?, ?)`,
			result.SessionID, i, res.NoteID, res.Grade.String(), res.DeltaMs,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get retrieves one stored run by its session id.
func (r *SessionRepository) Get(id string) (*SessionRecord, error) {
	rec := &SessionRecord{}

	err := r.db.QueryRow(
		`SELECT id, chart_id, started_at, duration_ms, score,
		   max_combo, perfects, greats, goods, misses, accuracy
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&rec.ID, &rec.ChartID, &rec.StartedAt, &rec.DurationMs,
		&rec.Summary.Score, &rec.Summary.MaxCombo,
		&rec.Summary.Perfects, &rec.Summary.Greats,
		&rec.Summary.Goods, &rec.Summary.Misses,
		&rec.Summary.Accuracy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return rec, nil
}

// Resolutions returns the per-note grade sequence of a run, in resolution
// order.
func (r *SessionRepository) Resolutions(sessionID string) ([]timeline.Resolution, error) {
	rows, err := r.db.Query(
		`SELECT note_id, grade, delta_ms
		 FROM session_resolutions WHERE session_id = ? ORDER BY sequence`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resolutions []timeline.Resolution
	for rows.Next() {
		var res timeline.Resolution
		var grade string
		if err := rows.Scan(&res.NoteID, &grade, &res.DeltaMs); err != nil {
			return nil, err
		}
		res.Grade = parseGrade(grade)
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resolutions, nil
}

// ListByChart returns all stored runs of a chart, newest first.
func (r *SessionRepository) ListByChart(chartID string) ([]*SessionRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, chart_id, started_at, duration_ms, score,
		   max_combo, perfects, greats, goods, misses, accuracy
		 FROM sessions WHERE chart_id = ? ORDER BY started_at DESC`,
		chartID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

// List returns all stored runs, newest first.
func (r *SessionRepository) List() ([]*SessionRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, chart_id, started_at, duration_ms, score,
		   max_combo, perfects, greats, goods, misses, accuracy
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]*SessionRecord, error) {
	var records []*SessionRecord
	for rows.Next() {
		rec := &SessionRecord{}
		err := rows.Scan(&rec.ID, &rec.ChartID, &rec.StartedAt, &rec.DurationMs,
			&rec.Summary.Score, &rec.Summary.MaxCombo,
			&rec.Summary.Perfects, &rec.Summary.Greats,
			&rec.Summary.Goods, &rec.Summary.Misses,
			&rec.Summary.Accuracy)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// parseGrade maps a stored grade string back to its enum value. Unknown
// strings map to Miss.
func parseGrade(s string) chart.Grade {
	switch s {
	case chart.GradePerfect.String():
		return chart.GradePerfect
	case chart.GradeGreat.String():
		return chart.GradeGreat
	case chart.GradeGood.String():
		return chart.GradeGood
	default:
		return chart.GradeMiss
	}
}
