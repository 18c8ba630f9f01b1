package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL,
	order_name  TEXT NOT NULL,
	step        TEXT NOT NULL DEFAULT 'review',
	approved    INTEGER NOT NULL DEFAULT 0,
	open_issues INTEGER NOT NULL DEFAULT 0,
	items       TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	order_name  TEXT NOT NULL,
	payload     TEXT NOT NULL,
	total       REAL NOT NULL,
	approved_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_order_id ON sessions(order_id);
CREATE INDEX IF NOT EXISTS idx_sessions_approved ON sessions(approved);
CREATE INDEX IF NOT EXISTS idx_orders_session_id ON orders(session_id);
CREATE INDEX IF NOT EXISTS idx_orders_approved_at ON orders(approved_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSession upserts a session snapshot by id.
func (s *SQLiteStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal items")
	}

	now := time.Now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			step = excluded.step,
			approved = excluded.approved,
			open_issues = excluded.open_issues,
			items = excluded.items,
			updated_at = excluded.updated_at`,
		rec.ID, rec.OrderID, rec.OrderName, string(rec.Step), boolToInt(rec.Approved),
		rec.OpenIssues, string(itemsJSON), created, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save session")
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)

	rec, err := scanSQLiteSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: session %s not found", id)
		}
		return nil, eris.Wrap(err, "sqlite: get session")
	}
	return rec, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]SessionRecord, error) {
	query := `SELECT id, order_id, order_name, step, approved, open_issues, items, created_at, updated_at
		 FROM sessions`
	var args []any
	if filter.Approved != nil {
		query += ` WHERE approved = ?`
		args = append(args, boolToInt(*filter.Approved))
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate sessions")
}

func (s *SQLiteStore) SaveOrder(ctx context.Context, order model.FinalizedOrder) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal order")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (id, session_id, order_name, payload, total, approved_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, total = excluded.total`,
		order.ID, order.SessionID, order.OrderName, string(payload), order.Total, order.ApprovedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save order")
	}
	return nil
}

func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*model.FinalizedOrder, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM orders WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: order %s not found", id)
		}
		return nil, eris.Wrap(err, "sqlite: get order")
	}

	var order model.FinalizedOrder
	if err := json.Unmarshal([]byte(payload), &order); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal order")
	}
	return &order, nil
}

func (s *SQLiteStore) ListOrders(ctx context.Context, limit int) ([]model.FinalizedOrder, error) {
	query := `SELECT payload FROM orders ORDER BY approved_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list orders")
	}
	defer rows.Close()

	var out []model.FinalizedOrder
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan order")
		}
		var order model.FinalizedOrder
		if err := json.Unmarshal([]byte(payload), &order); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal order")
		}
		out = append(out, order)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate orders")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSession(row rowScanner) (*SessionRecord, error) {
	var (
		rec      SessionRecord
		step     string
		approved int
		items    string
	)
	if err := row.Scan(&rec.ID, &rec.OrderID, &rec.OrderName, &step, &approved,
		&rec.OpenIssues, &items, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.Step = model.WorkflowStep(step)
	rec.Approved = approved != 0
	if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
		return nil, err
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
