package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryWorkbook keeps sheets in process memory. It backs the offline
// simulator and tests.
type MemoryWorkbook struct {
	mu     sync.Mutex
	sheets map[string]*memorySheet
}

func NewMemoryWorkbook() *MemoryWorkbook {
	return &MemoryWorkbook{sheets: make(map[string]*memorySheet)}
}

func (w *MemoryWorkbook) SheetByName(ctx context.Context, name string) (Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	sheet, ok := w.sheets[name]
	if !ok {
		return nil, ErrSheetNotFound
	}
	return sheet, nil
}

func (w *MemoryWorkbook) InsertSheet(ctx context.Context, name string) (Sheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.sheets[name]; ok {
		return nil, fmt.Errorf("sheet %q already exists", name)
	}
	sheet := &memorySheet{}
	w.sheets[name] = sheet
	return sheet, nil
}

func (w *MemoryWorkbook) Close() error {
	return nil
}

type memorySheet struct {
	mu   sync.RWMutex
	rows [][]string
}

func (s *memorySheet) AppendRow(ctx context.Context, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, append([]string(nil), row...))
	return nil
}

func (s *memorySheet) LastRow(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows), nil
}

func (s *memorySheet) Values(ctx context.Context, startRow, numRows int) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sliceRows(s.rows, startRow, numRows)
}

// sliceRows copies rows[startRow-1 : startRow-1+numRows], rejecting ranges
// outside the sheet.
func sliceRows(rows [][]string, startRow, numRows int) ([][]string, error) {
	if startRow < 1 || numRows < 0 || startRow-1+numRows > len(rows) {
		return nil, fmt.Errorf("range out of bounds: start %d, rows %d, last row %d", startRow, numRows, len(rows))
	}
	out := make([][]string, 0, numRows)
	for _, row := range rows[startRow-1 : startRow-1+numRows] {
		out = append(out, append([]string(nil), row...))
	}
	return out, nil
}
