package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// JSONLWorkbook stores each sheet as <dir>/<name>.jsonl, one JSON array per
// row. Files are only ever opened with O_APPEND for writing.
type JSONLWorkbook struct {
	dir string
	mu  sync.Mutex
}

func OpenJSONLWorkbook(dir string) (*JSONLWorkbook, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("jsonl workbook: missing directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonl workbook: %w", err)
	}
	return &JSONLWorkbook{dir: dir}, nil
}

func (w *JSONLWorkbook) sheetPath(name string) (string, error) {
	if err := CheckSheetName(name); err != nil {
		return "", fmt.Errorf("jsonl workbook: %q: %w", name, err)
	}
	return filepath.Join(w.dir, name+".jsonl"), nil
}

func (w *JSONLWorkbook) SheetByName(ctx context.Context, name string) (Sheet, error) {
	path, err := w.sheetPath(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSheetNotFound
		}
		return nil, err
	}
	return &jsonlSheet{path: path, mu: &w.mu}, nil
}

func (w *JSONLWorkbook) InsertSheet(ctx context.Context, name string) (Sheet, error) {
	path, err := w.sheetPath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &jsonlSheet{path: path, mu: &w.mu}, nil
}

func (w *JSONLWorkbook) Close() error {
	return nil
}

type jsonlSheet struct {
	path string
	mu   *sync.Mutex
}

func (s *jsonlSheet) AppendRow(ctx context.Context, row []string) error {
	line, err := json.Marshal(row)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

func (s *jsonlSheet) LastRow(ctx context.Context) (int, error) {
	rows, err := s.readRows()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *jsonlSheet) Values(ctx context.Context, startRow, numRows int) ([][]string, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}
	return sliceRows(rows, startRow, numRows)
}

func (s *jsonlSheet) readRows() ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return [][]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var out [][]string
	lineNo := 0
	for sc.Scan() {
		lineNo++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var row []string
		if err := json.Unmarshal(b, &row); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, lineNo, err)
		}
		out = append(out, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = [][]string{}
	}
	return out, nil
}
