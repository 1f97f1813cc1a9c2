package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var gateEventSelect = []string{
	"id", "sequence", "timestamp", "session_id", "topic", "level", "round", "overall",
	"oracle_advance", "advance", "overridden", "reason", "additional_subtopics", "outcome",
}

func (r *eventRepo) AppendGateEvent(ctx context.Context, data GateEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	additional := data.AdditionalSubtopics
	if additional == nil {
		additional = []string{}
	}
	subtopics, err := json.Marshal(additional)
	if err != nil {
		return fmt.Errorf("marshal additional subtopics: %w", err)
	}

	ins := builder().Insert(tableGateEvents).
		Columns(gateEventSelect[1:]...).
		Values(
			seqNum, time.Now().UTC(), data.SessionID, data.Topic, data.Level, data.Round, data.Overall,
			data.OracleAdvance, data.Advance, data.Overridden, data.Reason, string(subtopics), data.Outcome,
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save gate event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGateEvents(ctx context.Context, opts QueryOpts) ([]GateEvent, error) {
	sel := builder().Select(gateEventSelect...).From(entsql.Table(tableGateEvents))
	applyQueryOpts(sel, opts)

	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query gate events: %w", err)
	}
	defer rows.Close()

	var events []GateEvent
	for rows.Next() {
		e, err := scanGateEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanGateEvent(rows *sql.Rows) (*GateEvent, error) {
	var e GateEvent
	var subtopics []byte
	err := rows.Scan(
		&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.Topic, &e.Level, &e.Round, &e.Overall,
		&e.OracleAdvance, &e.Advance, &e.Overridden, &e.Reason, &subtopics, &e.Outcome,
	)
	if err != nil {
		return nil, fmt.Errorf("scan gate event: %w", err)
	}
	if err := json.Unmarshal(subtopics, &e.AdditionalSubtopics); err != nil {
		return nil, fmt.Errorf("decode additional subtopics: %w", err)
	}
	return &e, nil
}
