package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sheets (
		name TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_rows (
		sheet TEXT    NOT NULL REFERENCES sheets(name),
		row   INTEGER NOT NULL,
		cells TEXT    NOT NULL,
		PRIMARY KEY (sheet, row)
	)`,
}

// SQLiteWorkbook keeps sheets in a single SQLite file.
type SQLiteWorkbook struct {
	db *sql.DB
}

// OpenSQLiteWorkbook creates or opens the database at path. It is safe to
// call repeatedly on the same file.
func OpenSQLiteWorkbook(ctx context.Context, path string) (*SQLiteWorkbook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite workbook: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite workbook: %w", err)
	}

	// modernc.org/sqlite registers as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &SQLiteWorkbook{db: db}, nil
}

func (w *SQLiteWorkbook) SheetByName(ctx context.Context, name string) (Sheet, error) {
	var found string
	err := w.db.QueryRowContext(ctx, `SELECT name FROM sheets WHERE name = ?`, name).Scan(&found)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrSheetNotFound
	case err != nil:
		return nil, err
	}
	return &sqliteSheet{db: w.db, name: name}, nil
}

func (w *SQLiteWorkbook) InsertSheet(ctx context.Context, name string) (Sheet, error) {
	if _, err := w.db.ExecContext(ctx, `INSERT INTO sheets(name) VALUES (?)`, name); err != nil {
		return nil, err
	}
	return &sqliteSheet{db: w.db, name: name}, nil
}

func (w *SQLiteWorkbook) Close() error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}

type sqliteSheet struct {
	db   *sql.DB
	name string
}

func (s *sqliteSheet) AppendRow(ctx context.Context, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append row: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (sheet, row, cells)
		SELECT ?, COALESCE(MAX(row), 0) + 1, ? FROM sheet_rows WHERE sheet = ?
	`, s.name, string(cells), s.name)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return tx.Commit()
}

func (s *sqliteSheet) LastRow(ctx context.Context) (int, error) {
	var last int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(row), 0) FROM sheet_rows WHERE sheet = ?`, s.name).Scan(&last)
	if err != nil {
		return 0, err
	}
	return last, nil
}

func (s *sqliteSheet) Values(ctx context.Context, startRow, numRows int) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cells FROM sheet_rows
		WHERE sheet = ? AND row >= ? AND row < ?
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
