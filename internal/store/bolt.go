package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltWorkbook keeps one bucket per sheet. Row keys are the bucket's
// sequence number, big-endian, so cursor order is row order.
type BoltWorkbook struct {
	db *bolt.DB
}

func OpenBoltWorkbook(path string) (*BoltWorkbook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("bolt workbook: missing path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("bolt workbook: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	return &BoltWorkbook{db: db}, nil
}

func sheetBucket(name string) []byte {
	return []byte("sheet:" + name)
}

func rowKey(row uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, row)
	return k
}

func (w *BoltWorkbook) SheetByName(ctx context.Context, name string) (Sheet, error) {
	found := false
	err := w.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(sheetBucket(name)) != nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSheetNotFound
	}
	return &boltSheet{db: w.db, bucket: sheetBucket(name)}, nil
}

func (w *BoltWorkbook) InsertSheet(ctx context.Context, name string) (Sheet, error) {
	err := w.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket(sheetBucket(name))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &boltSheet{db: w.db, bucket: sheetBucket(name)}, nil
}

func (w *BoltWorkbook) Close() error {
	return w.db.Close()
}

type boltSheet struct {
	db     *bolt.DB
	bucket []byte
}

func (s *boltSheet) AppendRow(ctx context.Context, row []string) error {
	value, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrSheetNotFound
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(rowKey(seq), value)
	})
}

func (s *boltSheet) LastRow(ctx context.Context) (int, error) {
	var last int
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrSheetNotFound
		}
		last = int(b.Sequence())
		return nil
	})
	return last, err
}

func (s *boltSheet) Values(ctx context.Context, startRow, numRows int) ([][]string, error) {
	if startRow < 1 || numRows < 0 {
		return nil, fmt.Errorf("range out of bounds: start %d, rows %d", startRow, numRows)
	}
	out := make([][]string, 0, numRows)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrSheetNotFound
		}
		c := b.Cursor()
		for k, v := c.Seek(rowKey(uint64(startRow))); k != nil && len(out) < numRows; k, v = c.Next() {
			var row []string
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("decode row %d: %w", binary.BigEndian.Uint64(k), err)
			}
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) != numRows {
		return nil, fmt.Errorf("range out of bounds: start %d, rows %d, found %d", startRow, numRows, len(out))
	}
	return out, nil
}
