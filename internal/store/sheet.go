package store

import (
	"context"
	"fmt"
	"strings"
)

// Sheet is a single append-only table. Rows are 1-based, like a spreadsheet.
type Sheet interface {
	// AppendRow writes row after the last existing row. It must be durable
	// once it returns.
	AppendRow(ctx context.Context, row []string) error
	// LastRow returns the number of rows written so far (0 for an empty sheet).
	LastRow(ctx context.Context) (int, error)
	// Values returns numRows rows starting at startRow.
	Values(ctx context.Context, startRow, numRows int) ([][]string, error)
}

// Workbook holds named sheets.
type Workbook interface {
	// SheetByName returns ErrSheetNotFound when the sheet does not exist.
	SheetByName(ctx context.Context, name string) (Sheet, error)
	InsertSheet(ctx context.Context, name string) (Sheet, error)
	Close() error
}

// Backend names accepted by OpenWorkbook.
const (
	BackendMemory   = "memory"
	BackendJSONL    = "jsonl"
	BackendSQLite   = "sqlite"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Backends lists every backend OpenWorkbook understands.
var Backends = []string{BackendMemory, BackendJSONL, BackendSQLite, BackendBolt, BackendRedis, BackendPostgres}

// OpenWorkbook opens the workbook for backend. target is a directory for
// jsonl, a file path for sqlite and bolt, an address for redis and a
// connection string for postgres. It is ignored for memory.
func OpenWorkbook(ctx context.Context, backend, target string) (Workbook, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryWorkbook(), nil
	case BackendJSONL:
		return OpenJSONLWorkbook(target)
	case BackendSQLite:
		return OpenSQLiteWorkbook(ctx, target)
	case BackendBolt:
		return OpenBoltWorkbook(target)
	case BackendRedis:
		return OpenRedisWorkbook(ctx, target)
	case BackendPostgres:
		return OpenPostgresWorkbook(ctx, target)
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be one of %v", backend, Backends)
	}
}
