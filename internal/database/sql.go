package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

const settingsTimeout = 5 * time.Second

// SQLDatabase persists dashboard settings and stats snapshots in PostgreSQL
// or MySQL. It implements settings.Provider and SnapshotStore.
type SQLDatabase struct {
	db      *sql.DB
	dialect string
}

func NewPostgresDatabase(dsn string) (*SQLDatabase, error) {
	return Open(DialectPostgres, dsn)
}

// NewMySQLDatabase opens a MySQL database. parseTime is forced on so DATETIME
// columns scan into time.Time.
func NewMySQLDatabase(dsn string) (*SQLDatabase, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return Open(DialectMySQL, cfg.FormatDSN())
}

// Open connects with the given dialect, pings and creates the schema.
func Open(dialect, dsn string) (*SQLDatabase, error) {
	if dialect != DialectPostgres && dialect != DialectMySQL {
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &SQLDatabase{db: db, dialect: dialect}
	if err := d.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return d, nil
}

// OpenURL picks the dialect from a URL-style DSN: postgres:// or
// postgresql:// for PostgreSQL, mysql:// for MySQL (the scheme is stripped).
func OpenURL(rawURL string) (*SQLDatabase, error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return NewPostgresDatabase(rawURL)
	case strings.HasPrefix(rawURL, "mysql://"):
		return NewMySQLDatabase(strings.TrimPrefix(rawURL, "mysql://"))
	}
	return nil, fmt.Errorf("unrecognised database URL scheme in %q", redact(rawURL))
}

func (d *SQLDatabase) Close() error {
	return d.db.Close()
}

func (d *SQLDatabase) schema() []string {
	if d.dialect == DialectMySQL {
		return []string{
			`CREATE TABLE IF NOT EXISTS dashboard_settings (
				setting_key VARCHAR(128) PRIMARY KEY,
				setting_value TEXT NOT NULL,
				updated_at DATETIME(6) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS dashboard_snapshots (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				taken_at DATETIME(6) NOT NULL,
				total_tests INT NOT NULL,
				passed INT NOT NULL,
				failed INT NOT NULL,
				skipped INT NOT NULL,
				pass_rate DOUBLE NOT NULL,
				total_suites INT NOT NULL,
				INDEX idx_snapshots_taken_at (taken_at)
			)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS dashboard_settings (
			setting_key TEXT PRIMARY KEY,
			setting_value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dashboard_snapshots (
			id SERIAL PRIMARY KEY,
			taken_at TIMESTAMP NOT NULL,
			total_tests INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			pass_rate FLOAT NOT NULL,
			total_suites INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON dashboard_snapshots(taken_at DESC);`,
	}
}

func (d *SQLDatabase) InitSchema(ctx context.Context) error {
	for _, query := range d.schema() {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders for the dialect.
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *SQLDatabase) upsertSettingQuery() string {
	if d.dialect == DialectMySQL {
		return `INSERT INTO dashboard_settings (setting_key, setting_value, updated_at)
			VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value), updated_at = VALUES(updated_at)`
	}
	return rebind(d.dialect, `INSERT INTO dashboard_settings (setting_key, setting_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = EXCLUDED.setting_value,
			updated_at = EXCLUDED.updated_at`)
}

// Get reads a persisted setting. Database errors are logged and reported as
// an absent value so callers fall back to their defaults.
func (d *SQLDatabase) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx,
		rebind(d.dialect, `SELECT setting_value FROM dashboard_settings WHERE setting_key = ?`), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		slog.Warn("database: failed to read setting", "key", key, "error", err)
		return "", false
	}
	return value, true
}

func (d *SQLDatabase) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx, d.upsertSettingQuery(), key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

func (d *SQLDatabase) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := d.db.ExecContext(ctx, rebind(d.dialect, `
		INSERT INTO dashboard_snapshots (taken_at, total_tests, passed, failed, skipped, pass_rate, total_suites)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), snap.TakenAt.UTC(), snap.TotalTests, snap.Passed, snap.Failed, snap.Skipped, snap.PassRate, snap.TotalSuites)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

func (d *SQLDatabase) RecentSnapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.QueryContext(ctx, rebind(d.dialect, `
		SELECT taken_at, total_tests, passed, failed, skipped, pass_rate, total_suites
		FROM dashboard_snapshots
		ORDER BY taken_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.TakenAt, &s.TotalTests, &s.Passed, &s.Failed, &s.Skipped, &s.PassRate, &s.TotalSuites); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for charting.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

func redact(rawURL string) string {
	if i := strings.Index(rawURL, "@"); i >= 0 {
		if j := strings.Index(rawURL, "://"); j >= 0 && j < i {
			return rawURL[:j+3] + "***" + rawURL[i:]
		}
		return "***" + rawURL[i:]
	}
	return rawURL
}
