/*

The journal persists every committed fund operation event to Postgres so the
fund's history survives restarts and feeds the dashboard. Journaling is
observational: write failures are reported to the caller but never roll back
the operation that produced the event.

*/

package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/types"
)

var journalLogger = logger.GetForComponent("journal")

// JournalEntry is one persisted operation event.
type JournalEntry struct {
	EventID    int64           `json:"event_id"`
	OpID       string          `json:"op_id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Journal writes operation events to the operation_events table. It satisfies
// the fund's EventSink interface.
type Journal struct{}

// NewJournal creates a journal over the global database pool.
func NewJournal() *Journal {
	return &Journal{}
}

// Record persists one event under its operation ID.
func (j *Journal) Record(opID string, event types.Event) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Kind(), err)
	}

	var eventID int64
	err = DB.QueryRow(
		`INSERT INTO operation_events (op_id, kind, payload) VALUES ($1, $2, $3) RETURNING event_id;`,
		opID, event.Kind(), payload,
	).Scan(&eventID)
	if err != nil {
		return fmt.Errorf("failed to save operation event: %w", err)
	}

	journalLogger.Debug().
		Int64("event_id", eventID).
		Str("op_id", opID).
		Str("kind", event.Kind()).
		Msg("Operation event journaled")
	return nil
}

// RecentEvents returns the newest events, most recent first.
func RecentEvents(limit int) ([]JournalEntry, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(
		`SELECT event_id, op_id, kind, payload, occurred_at
		 FROM operation_events ORDER BY occurred_at DESC, event_id DESC LIMIT $1;`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query operation events: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		if err := rows.Scan(&entry.EventID, &entry.OpID, &entry.Kind, &entry.Payload, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation event: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate operation events: %w", err)
	}
	return entries, nil
}
