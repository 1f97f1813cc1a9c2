package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts filters and paginates event queries.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	SessionID string
	Purpose   string
}

// LLMRequestEventData captures a single oracle call.
type LLMRequestEventData struct {
	SessionID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored oracle call.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// UsageStat aggregates calls per purpose or per model. Only one of
// Purpose and Model is set, depending on the query.
type UsageStat struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// GateEventData records one gate resolution: what the oracle said,
// what the local revalidation made of it, and where the session went.
type GateEventData struct {
	SessionID           string
	Topic               string
	Level               string
	Round               int
	Overall             float64
	OracleAdvance       bool
	Advance             bool
	Overridden          bool
	Reason              string
	AdditionalSubtopics []string
	Outcome             string
}

type GateEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	GateEventData
}

// EventRepo is the append-only audit trail.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns nil when the event does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]UsageStat, error)
	LLMUsageByModel(ctx context.Context) ([]UsageStat, error)

	AppendGateEvent(ctx context.Context, data GateEventData) error
	QueryGateEvents(ctx context.Context, opts QueryOpts) ([]GateEvent, error)
}

// SessionRecord is the persisted form of a quiz session. Data is the
// session state as JSON; the other fields are copied out of it so that
// sessions can be listed without decoding.
type SessionRecord struct {
	ID        string
	Topic     string
	Level     string
	Phase     string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionRepo stores session records keyed by ID.
type SessionRepo interface {
	// SaveSession inserts or replaces the record.
	SaveSession(ctx context.Context, rec *SessionRecord) error

	// LoadSession returns nil when no record has the ID.
	LoadSession(ctx context.Context, id string) (*SessionRecord, error)

	DeleteSession(ctx context.Context, id string) error

	// ListSessions returns the most recently updated records first.
	ListSessions(ctx context.Context, limit int) ([]SessionRecord, error)

	// PruneSessions deletes records not updated since before and
	// reports how many were removed.
	PruneSessions(ctx context.Context, before time.Time) (int, error)
}
