package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"

	_ "github.com/lib/pq"
)

type PostgresStorage struct {
	db *sql.DB
}

var openDB = sql.Open

func NewPostgresStorage(connStr string) (*PostgresStorage, error) {
	db, err := openDB("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	err = s.initTables()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

// SaveSnapshots implements SnapshotStorage interface
func (s *PostgresStorage) SaveSnapshots(ctx context.Context, snapshots []models.MetricsSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO metrics_snapshots (
            name, ticker, category, premine_pct, current_supply_pct,
            mined_pct, fdmc, parity_achieved, vesting_progress_pct, timestamp
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
        )
        ON CONFLICT (name, timestamp) DO NOTHING
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		_, err := stmt.ExecContext(ctx,
			snap.Name,
			snap.Ticker,
			snap.Category,
			snap.PreminePct,
			nullFloat(snap.CurrentSupplyPct),
			nullFloat(snap.MinedPct),
			nullFloat(snap.FDMC),
			snap.ParityAchieved,
			nullFloat(snap.VestingProgressPct),
			snap.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save snapshot for %s: %w", snap.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// GetHistory implements SnapshotStorage interface
func (s *PostgresStorage) GetHistory(ctx context.Context, name string, start, end time.Time) ([]models.MetricsSnapshot, error) {
	query := `
        SELECT name, ticker, category, premine_pct, current_supply_pct,
               mined_pct, fdmc, parity_achieved, vesting_progress_pct, timestamp
        FROM metrics_snapshots
        WHERE name = $1 AND timestamp BETWEEN $2 AND $3
        ORDER BY timestamp ASC
    `

	rows, err := s.db.QueryContext(ctx, query, name, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var result []models.MetricsSnapshot
	for rows.Next() {
		var (
			snap                                 models.MetricsSnapshot
			currentPct, minedPct, fdmc, progress sql.NullFloat64
		)
		err := rows.Scan(
			&snap.Name,
			&snap.Ticker,
			&snap.Category,
			&snap.PreminePct,
			&currentPct,
			&minedPct,
			&fdmc,
			&snap.ParityAchieved,
			&progress,
			&snap.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.CurrentSupplyPct = floatPtr(currentPct)
		snap.MinedPct = floatPtr(minedPct)
		snap.FDMC = floatPtr(fdmc)
		snap.VestingProgressPct = floatPtr(progress)
		result = append(result, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}

	return result, nil
}

// Close closes the database.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS metrics_snapshots (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			ticker VARCHAR(20),
			category VARCHAR(20),
			premine_pct DOUBLE PRECISION,
			current_supply_pct DOUBLE PRECISION,
			mined_pct DOUBLE PRECISION,
			fdmc DOUBLE PRECISION,
			parity_achieved BOOLEAN,
			vesting_progress_pct DOUBLE PRECISION,
			timestamp TIMESTAMPTZ NOT NULL,
			UNIQUE (name, timestamp)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_metrics_snapshots_name_ts
			ON metrics_snapshots (name, timestamp)`,
	}

	for _, query := range queries {
		_, err := s.db.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
