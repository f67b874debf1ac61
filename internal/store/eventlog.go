package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const EventResultSubmitted = "ResultSubmitted"

type Event struct {
	Seq       int64  `db:"seq"`
	SiteID    string `db:"site_id"`
	Type      string `db:"typ"`
	Key       string `db:"key"`
	DataJSON  string `db:"data"`
	CreatedAt int64  `db:"created_at"`
}

type EventRepo struct{ db *sqlx.DB }

func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

// Append writes e through x, so callers can log inside their own transaction.
func (r *EventRepo) Append(ctx context.Context, x sqlx.ExtContext, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := x.ExecContext(ctx, x.Rebind(
		`INSERT INTO event_log (site_id, typ, key, data, created_at) VALUES (?,?,?,?,?)`),
		e.SiteID, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// Since returns events after seq in log order.
func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []Event
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log WHERE seq > ? ORDER BY seq LIMIT ?`),
		seq, limit)
	return out, err
}

// Cursor returns the last seq consumed by the named reader, 0 if none.
func (r *EventRepo) Cursor(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := r.db.GetContext(ctx, &seq, r.db.Rebind(`SELECT seq FROM forward_cursor WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return seq, err
}

func (r *EventRepo) SaveCursor(ctx context.Context, name string, seq int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO forward_cursor (name, seq) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET seq = excluded.seq`), name, seq)
	return err
}
