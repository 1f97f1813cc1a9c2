package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/quizgate/internal/store"
)

const (
	sessionKeyPrefix = "quizgate:session:"
	sessionIndexKey  = "quizgate:sessions"
)

// SessionRepo implements store.SessionRepo on Redis. Each record is a JSON
// string that expires after the configured TTL; a sorted set scored by
// update time indexes the live records.
type SessionRepo struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.SessionRepo = (*SessionRepo)(nil)

// NewSessionRepo returns a repository on client. A zero ttl keeps records
// until they are deleted or pruned.
func NewSessionRepo(client *redis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

type sessionEntry struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Level     string          `json:"level"`
	Phase     string          `json:"phase"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toEntry(rec *store.SessionRecord) sessionEntry {
	return sessionEntry{
		ID:        rec.ID,
		Topic:     rec.Topic,
		Level:     rec.Level,
		Phase:     rec.Phase,
		Data:      rec.Data,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
}

func (e sessionEntry) record() store.SessionRecord {
	return store.SessionRecord{
		ID:        e.ID,
		Topic:     e.Topic,
		Level:     e.Level,
		Phase:     e.Phase,
		Data:      e.Data,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func decodeEntry(raw []byte) (*store.SessionRecord, error) {
	var e sessionEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decoding session entry: %w", err)
	}
	rec := e.record()
	return &rec, nil
}

// SaveSession stores rec, keeping the creation time of an existing record.
func (r *SessionRepo) SaveSession(ctx context.Context, rec *store.SessionRecord) error {
	entry := toEntry(rec)

	existing, err := r.LoadSession(ctx, rec.ID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.CreatedAt.IsZero() {
		entry.CreatedAt = existing.CreatedAt
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding session entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(rec.ID), payload, r.ttl)
		pipe.ZAdd(ctx, sessionIndexKey, redis.Z{
			Score:  float64(entry.UpdatedAt.UnixMilli()),
			Member: rec.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SessionRepo) LoadSession(ctx context.Context, id string) (*store.SessionRecord, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return decodeEntry(raw)
}

func (r *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.ZRem(ctx, sessionIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// ListSessions returns the most recently updated live records. Index
// entries whose record has expired are dropped along the way.
func (r *SessionRepo) ListSessions(ctx context.Context, limit int) ([]store.SessionRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.client.ZRevRange(ctx, sessionIndexKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var (
		out   []store.SessionRecord
		stale []any
	)
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		rec, err := decodeEntry([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, sessionIndexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("dropping expired sessions: %w", err)
		}
	}
	return out, nil
}

// PruneSessions deletes records last updated before the cutoff.
func (r *SessionRepo) PruneSessions(ctx context.Context, before time.Time) (int, error) {
	ids, err := r.client.ZRangeByScore(ctx, sessionIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
		members[i] = id
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, sessionIndexKey, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return len(ids), nil
}
