package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "rorilog"
	redisDialTimeout = 2 * time.Second
)

// RedisWorkbook keeps each sheet as a Redis list. An empty list does not
// exist in Redis, so sheet membership is tracked in a separate set.
type RedisWorkbook struct {
	rdb *redis.Client
}

// OpenRedisWorkbook connects to addr ("host:port" or a redis:// URL) and
// pings it, retrying briefly while the server comes up.
func OpenRedisWorkbook(ctx context.Context, addr string) (*RedisWorkbook, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:6379"
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("redis workbook: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	opts.DialTimeout = redisDialTimeout
	rdb := redis.NewClient(opts)

	ping := func() error {
		return rdb.Ping(ctx).Err()
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(ping, b); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisWorkbook{rdb: rdb}, nil
}

func (w *RedisWorkbook) sheetsKey() string {
	return redisKeyPrefix + ":sheets"
}

func (w *RedisWorkbook) rowsKey(name string) string {
	return redisKeyPrefix + ":sheet:" + name
}

func (w *RedisWorkbook) SheetByName(ctx context.Context, name string) (Sheet, error) {
	ok, err := w.rdb.SIsMember(ctx, w.sheetsKey(), name).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSheetNotFound
	}
	return &redisSheet{rdb: w.rdb, key: w.rowsKey(name)}, nil
}

func (w *RedisWorkbook) InsertSheet(ctx context.Context, name string) (Sheet, error) {
	added, err := w.rdb.SAdd(ctx, w.sheetsKey(), name).Result()
	if err != nil {
		return nil, err
	}
	if added == 0 {
		return nil, fmt.Errorf("sheet %q already exists", name)
	}
	return &redisSheet{rdb: w.rdb, key: w.rowsKey(name)}, nil
}

func (w *RedisWorkbook) Close() error {
	return w.rdb.Close()
}

type redisSheet struct {
	rdb *redis.Client
	key string
}

func (s *redisSheet) AppendRow(ctx context.Context, row []string) error {
	value, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return s.rdb.RPush(ctx, s.key, value).Err()
}

func (s *redisSheet) LastRow(ctx context.Context) (int, error) {
	n, err := s.rdb.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *redisSheet) Values(ctx context.Context, startRow, numRows int) ([][]string, error) {
	if startRow < 1 || numRows < 0 {
		return nil, fmt.Errorf("range out of bounds: start %d, rows %d", startRow, numRows)
	}
	if numRows == 0 {
		return [][]string{}, nil
	}
	start := int64(startRow - 1)
	values, err := s.rdb.LRange(ctx, s.key, start, start+int64(numRows)-1).Result()
	if err != nil {
		return nil, err
	}
	if len(values) != numRows {
		return nil, fmt.Errorf("range out of bounds: start %d, rows %d, found %d", startRow, numRows, len(values))
	}
	out := make([][]string, 0, len(values))
	for i, v := range values {
		var row []string
		if err := json.Unmarshal([]byte(v), &row); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", startRow+i, err)
		}
		out = append(out, row)
	}
	return out, nil
}
