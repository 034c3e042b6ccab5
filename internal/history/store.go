// Package history keeps a short rolling trend of PLC tag values in an
// in-memory DuckDB database.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"

	"github.com/iagro/supervisory/internal/models"
)

// DefaultLimit and MaxLimit bound Recent.
const (
	DefaultLimit = 100
	MaxLimit     = 5000
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store closed")

// Sample is one recorded value of a tag.
type Sample struct {
	Timestamp time.Time           `json:"timestamp" msgpack:"timestamp"`
	Address   string              `json:"address" msgpack:"address"`
	Kind      models.VariableKind `json:"kind" msgpack:"kind"`
	Value     any                 `json:"value" msgpack:"value"`
}

// Store records snapshots. It satisfies plcsim.Recorder.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
	logger zerolog.Logger
}

// Open creates an empty in-memory store.
func Open(logger zerolog.Logger) (*Store, error) {
	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	// appends and queries are serialized by mu
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE samples (
			ts       BIGINT NOT NULL,
			address  VARCHAR NOT NULL,
			kind     TINYINT NOT NULL,
			value    DOUBLE NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Record appends one row per well-formed tag. Malformed values are skipped.
func (s *Store) Record(ctx context.Context, vars []models.PlcVariable, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	ts := at.UnixMilli()
	skipped := 0
	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}
		appender, err := duckdb.NewAppenderFromConn(dConn, "", "samples")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for _, v := range vars {
			kind, value, ok := encode(v)
			if !ok {
				skipped++
				continue
			}
			if err := appender.AppendRow(ts, v.Address, kind, value); err != nil {
				return fmt.Errorf("failed to append %s: %w", v.Address, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}
	if skipped > 0 {
		s.logger.Debug().Int("skipped", skipped).Msg("skipped malformed plc values")
	}
	return nil
}

// Recent returns up to limit samples for address, newest first.
func (s *Store) Recent(ctx context.Context, address string, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT ts, kind, value FROM samples WHERE address = ? ORDER BY ts DESC LIMIT ?",
		address, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]Sample, 0, limit)
	for rows.Next() {
		var (
			ts    int64
			kind  int8
			value float64
		)
		if err := rows.Scan(&ts, &kind, &value); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, decode(address, ts, kind, value))
	}
	return out, rows.Err()
}

// Count returns the number of stored samples.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&n)
	return n, err
}

// Prune deletes samples recorded before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM samples WHERE ts < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

const (
	kindDigital int8 = 0
	kindAnalog  int8 = 1
)

func encode(v models.PlcVariable) (int8, float64, bool) {
	if on, ok := v.Digital(); ok {
		if on {
			return kindDigital, 1, true
		}
		return kindDigital, 0, true
	}
	if f, ok := v.Analog(); ok {
		return kindAnalog, f, true
	}
	return 0, 0, false
}

func decode(address string, ts int64, kind int8, value float64) Sample {
	s := Sample{Timestamp: time.UnixMilli(ts).UTC(), Address: address}
	if kind == kindDigital {
		s.Kind = models.VariableDigital
		s.Value = value != 0
		return s
	}
	s.Kind = models.VariableAnalog
	s.Value = value
	return s
}
