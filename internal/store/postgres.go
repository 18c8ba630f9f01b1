package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dealerworks/reconcile-cli/internal/db"
	"github.com/dealerworks/reconcile-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_session": `INSERT INTO sessions (id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			step = $4, approved = $5, open_issues = $6, items = $7, updated_at = $9`,
	"get_session": `SELECT id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at
		 FROM sessions WHERE id = $1`,
	"get_order": `SELECT payload FROM orders WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL,
	order_name  TEXT NOT NULL,
	step        TEXT NOT NULL DEFAULT 'review',
	approved    BOOLEAN NOT NULL DEFAULT false,
	open_issues INTEGER NOT NULL DEFAULT 0,
	items       JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	order_name  TEXT NOT NULL,
	payload     JSONB NOT NULL,
	total       DOUBLE PRECISION NOT NULL,
	approved_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	order_id    TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	sku         TEXT NOT NULL,
	quantity    INTEGER NOT NULL,
	unit_price  DOUBLE PRECISION NOT NULL,
	total_price DOUBLE PRECISION NOT NULL,
	warranty    TEXT NOT NULL,
	cost_center TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (order_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_sessions_order_id ON sessions(order_id);
CREATE INDEX IF NOT EXISTS idx_sessions_approved ON sessions(approved);
CREATE INDEX IF NOT EXISTS idx_orders_session_id ON orders(session_id);
CREATE INDEX IF NOT EXISTS idx_orders_approved_at ON orders(approved_at);
CREATE INDEX IF NOT EXISTS idx_order_items_sku ON order_items(sku);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal items")
	}

	now := time.Now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			step = $4, approved = $5, open_issues = $6, items = $7, updated_at = $9`,
		rec.ID, rec.OrderID, rec.OrderName, string(rec.Step), rec.Approved,
		rec.OpenIssues, itemsJSON, created, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save session %s", rec.ID)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	var (
		rec   SessionRecord
		step  string
		items []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.OrderID, &rec.OrderName, &step, &rec.Approved,
		&rec.OpenIssues, &items, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: session %s not found", id)
		}
		return nil, eris.Wrapf(err, "postgres: get session %s", id)
	}

	rec.Step = model.WorkflowStep(step)
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal items")
	}
	return &rec, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]SessionRecord, error) {
	query := `SELECT id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at
		 FROM sessions WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Approved != nil {
		query += ` AND approved = $1`
		args = append(args, *filter.Approved)
		argIdx++
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec   SessionRecord
			step  string
			items []byte
		)
		if err := rows.Scan(&rec.ID, &rec.OrderID, &rec.OrderName, &step, &rec.Approved,
			&rec.OpenIssues, &items, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		rec.Step = model.WorkflowStep(step)
		if err := json.Unmarshal(items, &rec.Items); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal items")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

// SaveOrder writes the finalized order payload and bulk-upserts its line
// items into order_items for downstream reporting queries.
func (s *PostgresStore) SaveOrder(ctx context.Context, order model.FinalizedOrder) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal order")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders (id, session_id, order_name, payload, total, approved_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET payload = $4, total = $5`,
		order.ID, order.SessionID, order.OrderName, payload, order.Total, order.ApprovedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save order %s", order.ID)
	}

	if len(order.Items) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(order.Items))
	for _, li := range order.Items {
		rows = append(rows, []any{
			order.ID, li.ID, li.Name, li.SKU, li.Quantity,
			li.UnitPrice, li.TotalPrice, li.Warranty, li.CostCenter,
		})
	}

	_, err = db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "order_items",
		Columns:      []string{"order_id", "item_id", "name", "sku", "quantity", "unit_price", "total_price", "warranty", "cost_center"},
		ConflictKeys: []string{"order_id", "item_id"},
	}, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert items for order %s", order.ID)
	}
	return nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*model.FinalizedOrder, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM orders WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: order %s not found", id)
		}
		return nil, eris.Wrapf(err, "postgres: get order %s", id)
	}

	var order model.FinalizedOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal order")
	}
	return &order, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, limit int) ([]model.FinalizedOrder, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM orders ORDER BY approved_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list orders")
	}
	defer rows.Close()

	var out []model.FinalizedOrder
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan order")
		}
		var order model.FinalizedOrder
		if err := json.Unmarshal(payload, &order); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal order")
		}
		out = append(out, order)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list orders iterate")
}
