package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type sessionRepo struct {
	db *sql.DB
}

var sessionSelect = []string{"id", "topic", "level", "phase", "data", "created_at", "updated_at"}

func (r *sessionRepo) SaveSession(ctx context.Context, rec *SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	ins := builder().Insert(tableSessions).
		Columns(sessionSelect...).
		Values(rec.ID, rec.Topic, rec.Level, rec.Phase, string(rec.Data), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("topic")
				u.SetExcluded("level")
				u.SetExcluded("phase")
				u.SetExcluded("data")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *sessionRepo) LoadSession(ctx context.Context, id string) (*SessionRecord, error) {
	sel := builder().Select(sessionSelect...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id))

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSession(rows)
}

func (r *sessionRepo) DeleteSession(ctx context.Context, id string) error {
	del := builder().Delete(tableSessions).Where(entsql.EQ("id", id))
	if _, err := exec(ctx, r.db, del); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *sessionRepo) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	sel := builder().Select(sessionSelect...).
		From(entsql.Table(tableSessions)).
		OrderBy(entsql.Desc("updated_at"))
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *sessionRepo) PruneSessions(ctx context.Context, before time.Time) (int, error) {
	del := builder().Delete(tableSessions).Where(entsql.LT("updated_at", before.UTC()))
	res, err := exec(ctx, r.db, del)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return int(n), nil
}

func scanSession(rows *sql.Rows) (*SessionRecord, error) {
	var rec SessionRecord
	var data []byte
	if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Level, &rec.Phase, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.Data = data
	return &rec, nil
}
