// Package postgres mirrors the product set into a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/productscraper/internal/product"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultTable is used when MirrorConfig.Table is empty.
const DefaultTable = "products"

// MirrorConfig controls the Postgres connection pool used by the mirror.
type MirrorConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type txPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// MirrorResult counts rows touched by one replication.
type MirrorResult struct {
	CrawlID   uuid.UUID
	Upserted  int
	Unchanged int
}

// Mirror upserts product records keyed by (title, image_path).
type Mirror struct {
	pool  txPool
	table string
}

// NewMirror connects to Postgres using cfg.
func NewMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres_dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Mirror{pool: pool, table: table}, nil
}

// NewMirrorWithPool constructs a mirror from an existing pool (primarily for testing).
func NewMirrorWithPool(pool txPool, table string) (*Mirror, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Mirror{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (m *Mirror) Close() {
	if m == nil || m.pool == nil {
		return
	}
	m.pool.Close()
}

// EnsureSchema creates the mirror table if it does not exist.
func (m *Mirror) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	title         TEXT        NOT NULL,
	image_path    TEXT        NOT NULL,
	price         INTEGER     NOT NULL CHECK (price >= 0),
	last_crawl_id UUID        NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (title, image_path)
)`, m.table)
	if _, err := m.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure %s schema: %w", m.table, err)
	}
	return nil
}

// Replicate upserts records in one transaction. Rows whose price is unchanged
// are left untouched.
func (m *Mirror) Replicate(ctx context.Context, records []product.Record) (MirrorResult, error) {
	if m == nil || m.pool == nil {
		return MirrorResult{}, fmt.Errorf("product mirror is not configured")
	}
	crawlID, err := uuid.NewV7()
	if err != nil {
		return MirrorResult{}, fmt.Errorf("generate crawl id: %w", err)
	}
	res := MirrorResult{CrawlID: crawlID}

	query := fmt.Sprintf(`
INSERT INTO %[1]s (title, image_path, price, last_crawl_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (title, image_path) DO UPDATE
SET price = EXCLUDED.price, last_crawl_id = EXCLUDED.last_crawl_id, updated_at = now()
WHERE %[1]s.price <> EXCLUDED.price`, m.table)

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return MirrorResult{}, fmt.Errorf("begin mirror transaction: %w", err)
	}
	for _, rec := range records {
		tag, err := tx.Exec(ctx, query, rec.Title, rec.ImagePath, rec.Price, crawlID)
		if err != nil {
			_ = tx.Rollback(ctx)
			return MirrorResult{}, fmt.Errorf("upsert product %q: %w", rec.Title, err)
		}
		if tag.RowsAffected() > 0 {
			res.Upserted++
		} else {
			res.Unchanged++
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return MirrorResult{}, fmt.Errorf("commit mirror transaction: %w", err)
	}
	return res, nil
}
