package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS signs (
	id           TEXT PRIMARY KEY,
	order_number TEXT,
	borough      TEXT,
	street       TEXT NOT NULL,
	side         TEXT,
	description  TEXT NOT NULL,
	lat          REAL NOT NULL,
	lon          REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS meters (
	id           TEXT PRIMARY KEY,
	borough      TEXT,
	street       TEXT NOT NULL,
	status       TEXT,
	rate         TEXT,
	hours_active TEXT,
	lat          REAL NOT NULL,
	lon          REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS violations (
	id          TEXT PRIMARY KEY,
	code        TEXT,
	description TEXT NOT NULL,
	fine_amount REAL,
	issued_at   DATETIME NOT NULL,
	street      TEXT,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	fetched     INTEGER NOT NULL DEFAULT 0,
	loaded      INTEGER NOT NULL DEFAULT 0,
	rejected    INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS search_history (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	lat           REAL NOT NULL,
	lon           REAL NOT NULL,
	radius_meters REAL,
	result_count  INTEGER NOT NULL,
	searched_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signs_lat_lon ON signs(lat, lon);
CREATE INDEX IF NOT EXISTS idx_meters_lat_lon ON meters(lat, lon);
CREATE INDEX IF NOT EXISTS idx_violations_lat_lon ON violations(lat, lon);
CREATE INDEX IF NOT EXISTS idx_import_runs_dataset ON import_runs(dataset, started_at);
CREATE INDEX IF NOT EXISTS idx_search_history_at ON search_history(searched_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertSigns(ctx context.Context, signs []model.Sign) (int, error) {
	return s.upsertBatch(ctx, "sqlite: upsert signs",
		`INSERT INTO signs (id, order_number, borough, street, side, description, lat, lon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   order_number=excluded.order_number, borough=excluded.borough,
		   street=excluded.street, side=excluded.side,
		   description=excluded.description, lat=excluded.lat, lon=excluded.lon`,
		len(signs), func(i int) []any {
			sg := signs[i]
			return []any{sg.ID, sg.OrderNumber, sg.Borough, sg.Street, sg.Side, sg.Description, sg.Latitude, sg.Longitude}
		})
}

func (s *SQLiteStore) UpsertMeters(ctx context.Context, meters []model.Meter) (int, error) {
	return s.upsertBatch(ctx, "sqlite: upsert meters",
		`INSERT INTO meters (id, borough, street, status, rate, hours_active, lat, lon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   borough=excluded.borough, street=excluded.street, status=excluded.status,
		   rate=excluded.rate, hours_active=excluded.hours_active,
		   lat=excluded.lat, lon=excluded.lon`,
		len(meters), func(i int) []any {
			m := meters[i]
			return []any{m.ID, m.Borough, m.Street, m.Status, m.Rate, m.HoursActive, m.Latitude, m.Longitude}
		})
}

func (s *SQLiteStore) UpsertViolations(ctx context.Context, violations []model.Violation) (int, error) {
	return s.upsertBatch(ctx, "sqlite: upsert violations",
		`INSERT INTO violations (id, code, description, fine_amount, issued_at, street, lat, lon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   code=excluded.code, description=excluded.description,
		   fine_amount=excluded.fine_amount, issued_at=excluded.issued_at,
		   street=excluded.street, lat=excluded.lat, lon=excluded.lon`,
		len(violations), func(i int) []any {
			v := violations[i]
			return []any{v.ID, v.Code, v.Description, v.FineAmount, v.IssuedAt.UTC(), v.Street, v.Latitude, v.Longitude}
		})
}

// upsertBatch runs one statement per record inside a transaction.
func (s *SQLiteStore) upsertBatch(ctx context.Context, label, query string, n int, args func(int) []any) (int, error) {
	if n == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "%s: begin", label)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrapf(err, "%s: prepare", label)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return 0, eris.Wrapf(err, "%s: row %d", label, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "%s: commit", label)
	}
	return n, nil
}

func (s *SQLiteStore) SignsWithin(ctx context.Context, box geo.Box) ([]model.Sign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_number, borough, street, side, description, lat, lon
		 FROM signs WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query signs")
	}
	defer rows.Close()

	var signs []model.Sign
	for rows.Next() {
		var sg model.Sign
		if err := rows.Scan(&sg.ID, &sg.OrderNumber, &sg.Borough, &sg.Street, &sg.Side, &sg.Description, &sg.Latitude, &sg.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sign")
		}
		signs = append(signs, sg)
	}
	return signs, eris.Wrap(rows.Err(), "sqlite: iterate signs")
}

func (s *SQLiteStore) MetersWithin(ctx context.Context, box geo.Box) ([]model.Meter, error) {
	return s.queryMeters(ctx,
		`SELECT id, borough, street, status, rate, hours_active, lat, lon
		 FROM meters WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
}

func (s *SQLiteStore) Meters(ctx context.Context) ([]model.Meter, error) {
	return s.queryMeters(ctx,
		`SELECT id, borough, street, status, rate, hours_active, lat, lon FROM meters`,
	)
}

func (s *SQLiteStore) queryMeters(ctx context.Context, query string, args ...any) ([]model.Meter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query meters")
	}
	defer rows.Close()

	var meters []model.Meter
	for rows.Next() {
		var m model.Meter
		if err := rows.Scan(&m.ID, &m.Borough, &m.Street, &m.Status, &m.Rate, &m.HoursActive, &m.Latitude, &m.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan meter")
		}
		meters = append(meters, m)
	}
	return meters, eris.Wrap(rows.Err(), "sqlite: iterate meters")
}

func (s *SQLiteStore) ViolationsWithin(ctx context.Context, box geo.Box) ([]model.Violation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, description, fine_amount, issued_at, street, lat, lon
		 FROM violations WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query violations")
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.Code, &v.Description, &v.FineAmount, &v.IssuedAt, &v.Street, &v.Latitude, &v.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan violation")
		}
		violations = append(violations, v)
	}
	return violations, eris.Wrap(rows.Err(), "sqlite: iterate violations")
}

func (s *SQLiteStore) Count(ctx context.Context, dataset string) (int64, error) {
	if err := validateDataset(dataset); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+dataset).Scan(&count)
	return count, eris.Wrapf(err, "sqlite: count %s", dataset)
}

func (s *SQLiteStore) StartImportRun(ctx context.Context, dataset string) (*model.ImportRun, error) {
	run := &model.ImportRun{
		ID:        uuid.New().String(),
		Dataset:   dataset,
		Status:    model.ImportStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_runs (id, dataset, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Dataset, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert import run")
	}
	return run, nil
}

func (s *SQLiteStore) FinishImportRun(ctx context.Context, runID string, result model.SyncResult, runErr error) error {
	status := model.ImportStatusComplete
	var errMsg string
	if runErr != nil {
		status = model.ImportStatusFailed
		errMsg = runErr.Error()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE import_runs SET status = ?, fetched = ?, loaded = ?, rejected = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, result.Fetched, result.Loaded, result.Rejected, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish import run %s", runID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return eris.Wrapf(ErrNotFound, "import run %s", runID)
	}
	return nil
}

func (s *SQLiteStore) LastImportRun(ctx context.Context, dataset string) (*model.ImportRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, status, fetched, loaded, rejected, COALESCE(error, ''), started_at, finished_at
		 FROM import_runs WHERE dataset = ? ORDER BY started_at DESC LIMIT 1`,
		dataset,
	)

	var run model.ImportRun
	var finishedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Dataset, &run.Status,
		&run.Result.Fetched, &run.Result.Loaded, &run.Result.Rejected,
		&run.Error, &run.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "no import runs for %s", dataset)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan import run")
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *SQLiteStore) AddSearch(ctx context.Context, entry model.SearchEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (id, kind, lat, lon, radius_meters, result_count, searched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Kind, entry.Latitude, entry.Longitude, entry.RadiusMeters, entry.ResultCount, entry.SearchedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert search")
}

func (s *SQLiteStore) RecentSearches(ctx context.Context, limit int) ([]model.SearchEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, lat, lon, radius_meters, result_count, searched_at
		 FROM search_history ORDER BY searched_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query searches")
	}
	defer rows.Close()

	var entries []model.SearchEntry
	for rows.Next() {
		var e model.SearchEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Latitude, &e.Longitude, &e.RadiusMeters, &e.ResultCount, &e.SearchedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate searches")
}

func (s *SQLiteStore) PruneSearches(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM search_history WHERE id NOT IN (
		   SELECT id FROM search_history ORDER BY searched_at DESC LIMIT ?
		 )`,
		keep,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune searches")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: prune rows affected")
}

func (s *SQLiteStore) ClearSearches(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM search_history`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear searches")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: clear rows affected")
}
