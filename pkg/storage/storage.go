package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/atlasview/atlasview/pkg/names"
	"github.com/atlasview/atlasview/pkg/series"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS series_points (
  id         INTEGER PRIMARY KEY,
  country    TEXT NOT NULL,
  indicator  TEXT NOT NULL,
  year       INTEGER NOT NULL,
  value      REAL NOT NULL,
  saved_at   INTEGER NOT NULL,
  UNIQUE(country, indicator, year)
);
CREATE INDEX IF NOT EXISTS idx_points_series ON series_points(country, indicator);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// SaveSeries upserts the points of one country's indicator. Countries are
// stored under their backend spelling so aliases share one snapshot.
func (d *DB) SaveSeries(ctx context.Context, country, indicator string, points series.Series) (err error) {
	savedAt := time.Now().UTC().Unix()
	country = names.Normalize(country)

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO series_points(country, indicator, year, value, saved_at) VALUES(?,?,?,?,?)
ON CONFLICT(country, indicator, year) DO UPDATE SET value = excluded.value, saved_at = excluded.saved_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err = stmt.ExecContext(ctx, country, indicator, p.Year, p.Value, savedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadSeries returns a stored series ordered by year.
func (d *DB) LoadSeries(ctx context.Context, country, indicator string) (series.Series, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT year, value FROM series_points WHERE country = ? AND indicator = ? ORDER BY year",
		names.Normalize(country), indicator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := series.Series{}
	for rows.Next() {
		var p series.Point
		if err := rows.Scan(&p.Year, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListSnapshots summarizes every stored series.
func (d *DB) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	query := `
		SELECT
			country,
			indicator,
			COUNT(*),
			MIN(year),
			MAX(year),
			MAX(saved_at)
		FROM
			series_points
		GROUP BY
			country, indicator
		ORDER BY
			country, indicator;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			s       Snapshot
			savedAt int64
		)
		if err := rows.Scan(&s.Country, &s.Indicator, &s.Points, &s.FirstYear, &s.LastYear, &savedAt); err != nil {
			return nil, err
		}
		s.SavedAt = time.Unix(savedAt, 0).UTC()
		snaps = append(snaps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snaps, nil
}

// DeleteSeries removes a stored series and reports how many points went.
func (d *DB) DeleteSeries(ctx context.Context, country, indicator string) (int64, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM series_points WHERE country = ? AND indicator = ?", names.Normalize(country), indicator)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
