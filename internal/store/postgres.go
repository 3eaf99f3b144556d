package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS rorilog_sheets (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS rorilog_rows (
		sheet TEXT    NOT NULL REFERENCES rorilog_sheets(name),
		row   INTEGER NOT NULL,
		cells JSONB   NOT NULL,
		PRIMARY KEY (sheet, row)
	)`,
}

// PostgresWorkbook keeps sheets in two tables of a PostgreSQL database.
type PostgresWorkbook struct {
	pool *pgxpool.Pool
}

func OpenPostgresWorkbook(ctx context.Context, dsn string) (*PostgresWorkbook, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres workbook: missing connection string")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	ping := func() error {
		return pool.Ping(ctx)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(ping, b); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &PostgresWorkbook{pool: pool}, nil
}

func (w *PostgresWorkbook) SheetByName(ctx context.Context, name string) (Sheet, error) {
	var found string
	err := w.pool.QueryRow(ctx, `SELECT name FROM rorilog_sheets WHERE name = $1`, name).Scan(&found)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrSheetNotFound
	case err != nil:
		return nil, err
	}
	return &postgresSheet{pool: w.pool, name: name}, nil
}

func (w *PostgresWorkbook) InsertSheet(ctx context.Context, name string) (Sheet, error) {
	if _, err := w.pool.Exec(ctx, `INSERT INTO rorilog_sheets(name) VALUES ($1)`, name); err != nil {
		return nil, err
	}
	return &postgresSheet{pool: w.pool, name: name}, nil
}

func (w *PostgresWorkbook) Close() error {
	w.pool.Close()
	return nil
}

type postgresSheet struct {
	pool *pgxpool.Pool
	name string
}

func (s *postgresSheet) AppendRow(ctx context.Context, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("append row: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes appends to one sheet across processes.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, s.name); err != nil {
		return fmt.Errorf("append row: lock: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO rorilog_rows (sheet, row, cells)
		SELECT $1, COALESCE(MAX(row), 0) + 1, $2::jsonb FROM rorilog_rows WHERE sheet = $1
	`, s.name, string(cells))
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *postgresSheet) LastRow(ctx context.Context) (int, error) {
	var last int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(row), 0) FROM rorilog_rows WHERE sheet = $1`, s.name).Scan(&last)
	if err != nil {
		return 0, err
	}
	return last, nil
}

func (s *postgresSheet) Values(ctx context.Context, startRow, numRows int) ([][]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cells::text FROM rorilog_rows
		WHERE sheet = $1 AND row >= $2 AND row < $3
		ORDER BY row ASC
	`, s.name, startRow, startRow+numRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([][]string, 0, numRows)
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != numRows {
		return nil, fmt.Errorf("range out of bounds: start %d, rows %d, found %d", startRow, numRows, len(out))
	}
	return out, nil
}
