package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	tableSessions    = "sessions"
	tableLLMRequests = "llm_request_events"
	tableGateEvents  = "gate_events"
)

var (
	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "topic", Type: field.TypeString},
		{Name: "level", Type: field.TypeString},
		{Name: "phase", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_updated_at", Columns: []*schema.Column{sessionsColumns[6]}},
		},
	}

	// Every event table starts with the same id, sequence and timestamp
	// columns; sequence is the global order across tables.
	llmRequestColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmRequestTable = &schema.Table{
		Name:       tableLLMRequests,
		Columns:    llmRequestColumns,
		PrimaryKey: []*schema.Column{llmRequestColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmRequestColumns[2]}},
			{Name: "llmrequestevent_session_id", Columns: []*schema.Column{llmRequestColumns[3]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestColumns[6]}},
		},
	}

	gateEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
		{Name: "topic", Type: field.TypeString},
		{Name: "level", Type: field.TypeString},
		{Name: "round", Type: field.TypeInt},
		{Name: "overall", Type: field.TypeFloat64},
		{Name: "oracle_advance", Type: field.TypeBool},
		{Name: "advance", Type: field.TypeBool},
		{Name: "overridden", Type: field.TypeBool},
		{Name: "reason", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "additional_subtopics", Type: field.TypeJSON},
		{Name: "outcome", Type: field.TypeString},
	}
	gateEventTable = &schema.Table{
		Name:       tableGateEvents,
		Columns:    gateEventColumns,
		PrimaryKey: []*schema.Column{gateEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "gateevent_session_id", Columns: []*schema.Column{gateEventColumns[3]}},
		},
	}

	// Tables is every table the store migrates.
	Tables = []*schema.Table{
		sessionsTable,
		llmRequestTable,
		gateEventTable,
	}
)
