package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/parkscout-nyc/parkscout/internal/geo"
	"github.com/parkscout-nyc/parkscout/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgres connects a pgx pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, eris.New("postgres: database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS signs (
	id           TEXT PRIMARY KEY,
	order_number TEXT,
	borough      TEXT,
	street       TEXT NOT NULL,
	side         TEXT,
	description  TEXT NOT NULL,
	lat          DOUBLE PRECISION NOT NULL,
	lon          DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS meters (
	id           TEXT PRIMARY KEY,
	borough      TEXT,
	street       TEXT NOT NULL,
	status       TEXT,
	rate         TEXT,
	hours_active TEXT,
	lat          DOUBLE PRECISION NOT NULL,
	lon          DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS violations (
	id          TEXT PRIMARY KEY,
	code        TEXT,
	description TEXT NOT NULL,
	fine_amount DOUBLE PRECISION,
	issued_at   TIMESTAMPTZ NOT NULL,
	street      TEXT,
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS import_runs (
	id          TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	fetched     INTEGER NOT NULL DEFAULT 0,
	loaded      INTEGER NOT NULL DEFAULT 0,
	rejected    INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS search_history (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	lat           DOUBLE PRECISION NOT NULL,
	lon           DOUBLE PRECISION NOT NULL,
	radius_meters DOUBLE PRECISION,
	result_count  INTEGER NOT NULL,
	searched_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_signs_lat_lon ON signs(lat, lon);
CREATE INDEX IF NOT EXISTS idx_meters_lat_lon ON meters(lat, lon);
CREATE INDEX IF NOT EXISTS idx_violations_lat_lon ON violations(lat, lon);
CREATE INDEX IF NOT EXISTS idx_import_runs_dataset ON import_runs(dataset, started_at);
CREATE INDEX IF NOT EXISTS idx_search_history_at ON search_history(searched_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertSigns(ctx context.Context, signs []model.Sign) (int, error) {
	return s.upsertBatch(ctx, "postgres: upsert signs",
		`INSERT INTO signs (id, order_number, borough, street, side, description, lat, lon)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   order_number=EXCLUDED.order_number, borough=EXCLUDED.borough,
		   street=EXCLUDED.street, side=EXCLUDED.side,
		   description=EXCLUDED.description, lat=EXCLUDED.lat, lon=EXCLUDED.lon`,
		len(signs), func(i int) []any {
			sg := signs[i]
			return []any{sg.ID, sg.OrderNumber, sg.Borough, sg.Street, sg.Side, sg.Description, sg.Latitude, sg.Longitude}
		})
}

func (s *PostgresStore) UpsertMeters(ctx context.Context, meters []model.Meter) (int, error) {
	return s.upsertBatch(ctx, "postgres: upsert meters",
		`INSERT INTO meters (id, borough, street, status, rate, hours_active, lat, lon)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   borough=EXCLUDED.borough, street=EXCLUDED.street, status=EXCLUDED.status,
		   rate=EXCLUDED.rate, hours_active=EXCLUDED.hours_active,
		   lat=EXCLUDED.lat, lon=EXCLUDED.lon`,
		len(meters), func(i int) []any {
			m := meters[i]
			return []any{m.ID, m.Borough, m.Street, m.Status, m.Rate, m.HoursActive, m.Latitude, m.Longitude}
		})
}

func (s *PostgresStore) UpsertViolations(ctx context.Context, violations []model.Violation) (int, error) {
	return s.upsertBatch(ctx, "postgres: upsert violations",
		`INSERT INTO violations (id, code, description, fine_amount, issued_at, street, lat, lon)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   code=EXCLUDED.code, description=EXCLUDED.description,
		   fine_amount=EXCLUDED.fine_amount, issued_at=EXCLUDED.issued_at,
		   street=EXCLUDED.street, lat=EXCLUDED.lat, lon=EXCLUDED.lon`,
		len(violations), func(i int) []any {
			v := violations[i]
			return []any{v.ID, v.Code, v.Description, v.FineAmount, v.IssuedAt.UTC(), v.Street, v.Latitude, v.Longitude}
		})
}

func (s *PostgresStore) upsertBatch(ctx context.Context, label, query string, n int, args func(int) []any) (int, error) {
	if n == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "%s: begin", label)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i := 0; i < n; i++ {
		if _, err := tx.Exec(ctx, query, args(i)...); err != nil {
			return 0, eris.Wrapf(err, "%s: row %d", label, i)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "%s: commit", label)
	}
	return n, nil
}

func (s *PostgresStore) SignsWithin(ctx context.Context, box geo.Box) ([]model.Sign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, order_number, borough, street, side, description, lat, lon
		 FROM signs WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query signs")
	}
	defer rows.Close()

	var signs []model.Sign
	for rows.Next() {
		var sg model.Sign
		if err := rows.Scan(&sg.ID, &sg.OrderNumber, &sg.Borough, &sg.Street, &sg.Side, &sg.Description, &sg.Latitude, &sg.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sign")
		}
		signs = append(signs, sg)
	}
	return signs, eris.Wrap(rows.Err(), "postgres: iterate signs")
}

func (s *PostgresStore) MetersWithin(ctx context.Context, box geo.Box) ([]model.Meter, error) {
	return s.queryMeters(ctx,
		`SELECT id, borough, street, status, rate, hours_active, lat, lon
		 FROM meters WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
}

func (s *PostgresStore) Meters(ctx context.Context) ([]model.Meter, error) {
	return s.queryMeters(ctx,
		`SELECT id, borough, street, status, rate, hours_active, lat, lon FROM meters`,
	)
}

func (s *PostgresStore) queryMeters(ctx context.Context, query string, args ...any) ([]model.Meter, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query meters")
	}
	defer rows.Close()

	var meters []model.Meter
	for rows.Next() {
		var m model.Meter
		if err := rows.Scan(&m.ID, &m.Borough, &m.Street, &m.Status, &m.Rate, &m.HoursActive, &m.Latitude, &m.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan meter")
		}
		meters = append(meters, m)
	}
	return meters, eris.Wrap(rows.Err(), "postgres: iterate meters")
}

func (s *PostgresStore) ViolationsWithin(ctx context.Context, box geo.Box) ([]model.Violation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, code, description, fine_amount, issued_at, street, lat, lon
		 FROM violations WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query violations")
	}
	defer rows.Close()

	var violations []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.Code, &v.Description, &v.FineAmount, &v.IssuedAt, &v.Street, &v.Latitude, &v.Longitude); err != nil {
			return nil, eris.Wrap(err, "postgres: scan violation")
		}
		violations = append(violations, v)
	}
	return violations, eris.Wrap(rows.Err(), "postgres: iterate violations")
}

func (s *PostgresStore) Count(ctx context.Context, dataset string) (int64, error) {
	if err := validateDataset(dataset); err != nil {
		return 0, err
	}
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+dataset).Scan(&count)
	return count, eris.Wrapf(err, "postgres: count %s", dataset)
}

func (s *PostgresStore) StartImportRun(ctx context.Context, dataset string) (*model.ImportRun, error) {
	run := &model.ImportRun{
		ID:        uuid.New().String(),
		Dataset:   dataset,
		Status:    model.ImportStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO import_runs (id, dataset, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Dataset, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert import run")
	}
	return run, nil
}

func (s *PostgresStore) FinishImportRun(ctx context.Context, runID string, result model.SyncResult, runErr error) error {
	status := model.ImportStatusComplete
	var errMsg string
	if runErr != nil {
		status = model.ImportStatusFailed
		errMsg = runErr.Error()
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE import_runs SET status = $1, fetched = $2, loaded = $3, rejected = $4, error = $5, finished_at = $6 WHERE id = $7`,
		status, result.Fetched, result.Loaded, result.Rejected, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish import run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "import run %s", runID)
	}
	return nil
}

func (s *PostgresStore) LastImportRun(ctx context.Context, dataset string) (*model.ImportRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, dataset, status, fetched, loaded, rejected, COALESCE(error, ''), started_at, finished_at
		 FROM import_runs WHERE dataset = $1 ORDER BY started_at DESC LIMIT 1`,
		dataset,
	)

	var run model.ImportRun
	var finishedAt *time.Time
	err := row.Scan(&run.ID, &run.Dataset, &run.Status,
		&run.Result.Fetched, &run.Result.Loaded, &run.Result.Rejected,
		&run.Error, &run.StartedAt, &finishedAt)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "no import runs for %s", dataset)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan import run")
	}
	run.FinishedAt = finishedAt
	return &run, nil
}

func (s *PostgresStore) AddSearch(ctx context.Context, entry model.SearchEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_history (id, kind, lat, lon, radius_meters, result_count, searched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Kind, entry.Latitude, entry.Longitude, entry.RadiusMeters, entry.ResultCount, entry.SearchedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: insert search")
}

func (s *PostgresStore) RecentSearches(ctx context.Context, limit int) ([]model.SearchEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, lat, lon, radius_meters, result_count, searched_at
		 FROM search_history ORDER BY searched_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query searches")
	}
	defer rows.Close()

	var entries []model.SearchEntry
	for rows.Next() {
		var e model.SearchEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Latitude, &e.Longitude, &e.RadiusMeters, &e.ResultCount, &e.SearchedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate searches")
}

func (s *PostgresStore) PruneSearches(ctx context.Context, keep int) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM search_history WHERE id NOT IN (
		   SELECT id FROM search_history ORDER BY searched_at DESC LIMIT $1
		 )`,
		keep,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune searches")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ClearSearches(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM search_history`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear searches")
	}
	return tag.RowsAffected(), nil
}
