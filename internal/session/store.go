package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/quizgate/internal/store"
)

// ErrNotFound is returned by Store.Load for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Store persists session states between turns.
type Store interface {
	Save(ctx context.Context, st *State) error
	Load(ctx context.Context, id string) (*State, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

func (m *MemoryStore) Save(_ context.Context, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.id] = st.clone()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return st.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// RepoStore stores sessions as JSON records in a store.SessionRepo, which
// is either the SQLite store or the Redis cache.
type RepoStore struct {
	repo store.SessionRepo
}

func NewRepoStore(repo store.SessionRepo) *RepoStore {
	return &RepoStore{repo: repo}
}

func (r *RepoStore) Save(ctx context.Context, st *State) error {
	rec, err := Encode(st)
	if err != nil {
		return err
	}
	if err := r.repo.SaveSession(ctx, rec); err != nil {
		return fmt.Errorf("save session %s: %w", st.id, err)
	}
	return nil
}

func (r *RepoStore) Load(ctx context.Context, id string) (*State, error) {
	rec, err := r.repo.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return Decode(rec)
}

func (r *RepoStore) Delete(ctx context.Context, id string) error {
	if err := r.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Encode converts a state to its persisted record.
func Encode(st *State) (*store.SessionRecord, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", st.id, err)
	}
	return &store.SessionRecord{
		ID:        st.id,
		Topic:     st.topic,
		Level:     st.level.String(),
		Phase:     string(st.Phase()),
		Data:      data,
		CreatedAt: st.createdAt,
		UpdatedAt: updatedOrNow(st.updatedAt),
	}, nil
}

// Decode restores a state from its persisted record.
func Decode(rec *store.SessionRecord) (*State, error) {
	st := new(State)
	if err := json.Unmarshal(rec.Data, st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", rec.ID, err)
	}
	return st, nil
}

func updatedOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
