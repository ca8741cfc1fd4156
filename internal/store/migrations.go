package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Charts table - stores the full chart document as JSON alongside
		// metadata used for listings
		`CREATE TABLE IF NOT EXISTS charts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			note_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Calibrations table - stores committed calibration profiles, newest
		// row wins on load
		`CREATE TABLE IF NOT EXISTS calibrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile TEXT NOT NULL,
			residual REAL NOT NULL,
			pair_count INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sessions table - one row per finished run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			chart_id TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			score INTEGER NOT NULL,
			max_combo INTEGER NOT NULL,
			perfects INTEGER NOT NULL,
			greats INTEGER NOT NULL,
			goods INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			accuracy REAL NOT NULL
		)`,

		// Session resolutions table - the per-note grade sequence of a run,
		// in resolution order
		`CREATE TABLE IF NOT EXISTS session_resolutions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			note_id TEXT NOT NULL,
			grade TEXT NOT NULL,
			delta_ms INTEGER NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sessions_chart_id ON sessions(chart_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_resolutions_session_id ON session_resolutions(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
