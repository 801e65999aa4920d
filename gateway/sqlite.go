package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/healthaccess/metric"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS samples (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		metric   TEXT    NOT NULL,
		value    REAL    NOT NULL,
		start_ns INTEGER NOT NULL,
		end_ns   INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_samples_metric_start ON samples (metric, start_ns)`,
	`CREATE TABLE IF NOT EXISTS profile (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		sex        INTEGER NOT NULL DEFAULT 0,
		blood_type INTEGER NOT NULL DEFAULT 0,
		birth_ns   INTEGER
	)`,
}

// SQLiteStore persists samples in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu     sync.Mutex
	closed bool
}

// OpenSQLiteStore opens (or creates) the database at path. The special path
// ":memory:" keeps everything in memory for the lifetime of the store.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("gateway: create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("gateway: open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("gateway: init sqlite schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Add stores samples in a single transaction.
func (s *SQLiteStore) Add(ctx context.Context, samples ...Sample) error {
	normalized := make([]Sample, 0, len(samples))
	for _, sample := range samples {
		n, err := normalizeSample(sample)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("gateway: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (metric, value, start_ns, end_ns) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("gateway: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range normalized {
		if _, err := stmt.ExecContext(ctx, n.Metric.String(), n.Value, n.Start.UnixNano(), n.End.UnixNano()); err != nil {
			return fmt.Errorf("gateway: insert %s sample: %w", n.Metric, err)
		}
	}
	return tx.Commit()
}

// SetProfile replaces the stored characteristics.
func (s *SQLiteStore) SetProfile(ctx context.Context, p Profile) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var birth sql.NullInt64
	if !p.BirthDate.IsZero() {
		birth = sql.NullInt64{Int64: p.BirthDate.UnixNano(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, sex, blood_type, birth_ns) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sex = excluded.sex,
			blood_type = excluded.blood_type,
			birth_ns = excluded.birth_ns`,
		int(p.Sex), int(p.BloodType), birth)
	if err != nil {
		return fmt.Errorf("gateway: save profile: %w", err)
	}
	return nil
}

// Latest implements SampleStore.
func (s *SQLiteStore) Latest(ctx context.Context, m metric.Metric, until time.Time) (Sample, bool, error) {
	if err := s.checkOpen(); err != nil {
		return Sample{}, false, err
	}

	var (
		value          float64
		startNs, endNs int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT value, start_ns, end_ns FROM samples
		WHERE metric = ? AND end_ns <= ?
		ORDER BY start_ns DESC, id DESC
		LIMIT 1`,
		m.String(), until.UnixNano()).Scan(&value, &startNs, &endNs)
	if errors.Is(err, sql.ErrNoRows) {
		return Sample{}, false, nil
	}
	if err != nil {
		return Sample{}, false, fmt.Errorf("gateway: latest %s: %w", m, err)
	}

	return Sample{
		Metric: m,
		Value:  value,
		Start:  time.Unix(0, startNs),
		End:    time.Unix(0, endNs),
	}, true, nil
}

// Sum implements SampleStore.
func (s *SQLiteStore) Sum(ctx context.Context, m metric.Metric, from, until time.Time) (float64, int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, 0, err
	}

	var (
		total float64
		count int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(value), 0), COUNT(*) FROM samples
		WHERE metric = ? AND start_ns >= ? AND end_ns <= ?`,
		m.String(), from.UnixNano(), until.UnixNano()).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("gateway: sum %s: %w", m, err)
	}
	return total, count, nil
}

// Profile implements SampleStore.
func (s *SQLiteStore) Profile(ctx context.Context) (Profile, error) {
	if err := s.checkOpen(); err != nil {
		return Profile{}, err
	}

	var (
		sex, blood int
		birth      sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT sex, blood_type, birth_ns FROM profile WHERE id = 1`).Scan(&sex, &blood, &birth)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("gateway: load profile: %w", err)
	}

	p := Profile{
		Sex:       BiologicalSex(sex),
		BloodType: BloodGroup(blood),
	}
	if birth.Valid {
		p.BirthDate = time.Unix(0, birth.Int64)
	}
	return p, nil
}

// Close implements SampleStore. It is idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
