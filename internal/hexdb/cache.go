package hexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS aircraft (
	mode_s TEXT PRIMARY KEY,
	registration TEXT NOT NULL DEFAULT '',
	manufacturer TEXT NOT NULL DEFAULT '',
	icao_type_code TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	registered_owners TEXT NOT NULL DEFAULT '',
	operator_flag_code TEXT NOT NULL DEFAULT '',
	fetched_at TEXT NOT NULL
);
`

// Cache persists aircraft records in SQLite so lookups survive restarts.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open aircraft cache: %w", err)
	}
	// One writer at a time; lookups are rare compared to feed traffic.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create aircraft schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached record for hex, if any.
func (c *Cache) Get(ctx context.Context, hex string) (Aircraft, bool, error) {
	if c == nil {
		return Aircraft{}, false, nil
	}
	var a Aircraft
	err := c.db.QueryRowContext(ctx, `
		SELECT mode_s, registration, manufacturer, icao_type_code, type,
		       registered_owners, operator_flag_code
		FROM aircraft WHERE mode_s = ?`, hex).Scan(
		&a.ModeS, &a.Registration, &a.Manufacturer, &a.ICAOTypeCode, &a.Type,
		&a.RegisteredOwners, &a.OperatorFlagCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Aircraft{}, false, nil
	}
	if err != nil {
		return Aircraft{}, false, fmt.Errorf("query aircraft %s: %w", hex, err)
	}
	return a, true, nil
}

// Put stores or replaces the record for hex.
func (c *Cache) Put(ctx context.Context, hex string, a Aircraft) error {
	if c == nil {
		return nil
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO aircraft (mode_s, registration, manufacturer, icao_type_code, type,
		                      registered_owners, operator_flag_code, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mode_s) DO UPDATE SET
			registration = excluded.registration,
			manufacturer = excluded.manufacturer,
			icao_type_code = excluded.icao_type_code,
			type = excluded.type,
			registered_owners = excluded.registered_owners,
			operator_flag_code = excluded.operator_flag_code,
			fetched_at = excluded.fetched_at`,
		hex, a.Registration, a.Manufacturer, a.ICAOTypeCode, a.Type,
		a.RegisteredOwners, a.OperatorFlagCode, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store aircraft %s: %w", hex, err)
	}
	return nil
}

// Len returns the number of cached records.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM aircraft").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
