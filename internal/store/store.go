package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

const (
	// SheetName is the sheet entries live in unless the store is told otherwise.
	SheetName = "Entries"
	// HeaderText is the value of row 1, column 1.
	HeaderText = "Text"
)

// EntryStore keeps text entries in a sheet laid out as
//
//	row 1:   "Text" (header)
//	row 2..: one entry per row, column 1
//
// Rows are only ever appended. Every method holds the store lock for its
// whole duration, so appends are serialized and a read never observes a
// half-finished append from this process.
type EntryStore struct {
	mu        sync.Mutex
	workbook  Workbook
	sheetName string
}

// New returns a store over wb. An empty sheetName selects SheetName.
func New(wb Workbook, sheetName string) *EntryStore {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = SheetName
	}
	return &EntryStore{workbook: wb, sheetName: sheetName}
}

// SheetName returns the name of the sheet backing the store.
func (s *EntryStore) SheetName() string {
	return s.sheetName
}

// Close closes the underlying workbook.
func (s *EntryStore) Close() error {
	return s.workbook.Close()
}

// SanitizeText validates a value headed for the log and returns it trimmed.
func SanitizeText(v any) (string, error) {
	text, ok := v.(string)
	if !ok {
		return "", ErrTextNotString
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextRequired
	}
	return text, nil
}

// EnsureInitialized creates the sheet with its header if it is missing, and
// writes the header into an existing empty sheet. Sheets that already hold
// rows are left untouched.
func (s *EntryStore) EnsureInitialized(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.ensureSheet(ctx)
	return err
}

// Append validates text and appends it as a new row. It returns every entry
// (header excluded) after the append, in insertion order.
func (s *EntryStore) Append(ctx context.Context, text string) ([]string, error) {
	return s.AppendValue(ctx, text)
}

// AppendValue is Append for values of unknown type, such as decoded JSON.
// Anything that is not a string fails with ErrTextNotString.
func (s *EntryStore) AppendValue(ctx context.Context, v any) ([]string, error) {
	text, err := SanitizeText(v)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.ensureSheet(ctx)
	if err != nil {
		return nil, err
	}
	if err := sheet.AppendRow(ctx, []string{text}); err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}
	slog.Debug("entry appended", "sheet", s.sheetName, "length", len(text))

	return readEntries(ctx, sheet)
}

// ReadAll returns every entry (header excluded) in insertion order. The
// result is never nil.
func (s *EntryStore) ReadAll(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.ensureSheet(ctx)
	if err != nil {
		return nil, err
	}
	return readEntries(ctx, sheet)
}

func (s *EntryStore) ensureSheet(ctx context.Context) (Sheet, error) {
	sheet, err := s.workbook.SheetByName(ctx, s.sheetName)
	switch {
	case err == nil:
	case errors.Is(err, ErrSheetNotFound):
		sheet, err = s.workbook.InsertSheet(ctx, s.sheetName)
		if err != nil {
			return nil, fmt.Errorf("insert sheet %q: %w", s.sheetName, err)
		}
		slog.Info("sheet created", "sheet", s.sheetName)
	default:
		return nil, fmt.Errorf("open sheet %q: %w", s.sheetName, err)
	}

	last, err := sheet.LastRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", s.sheetName, err)
	}
	if last == 0 {
		if err := sheet.AppendRow(ctx, []string{HeaderText}); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return sheet, nil
}

func readEntries(ctx context.Context, sheet Sheet) ([]string, error) {
	last, err := sheet.LastRow(ctx)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	if last < 2 {
		return []string{}, nil
	}

	rows, err := sheet.Values(ctx, 2, last-1)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, row[0])
	}
	return out, nil
}
