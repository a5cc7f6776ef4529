package universe

import (
	"os"
	"time"
)

// EventKind labels a tick journal row.
type EventKind string

const (
	EventResourceDelta       EventKind = "resource_delta"
	EventArrival             EventKind = "arrival"
	EventReturn              EventKind = "return"
	EventColonizationSuccess EventKind = "colonization_success"
	EventColonizationFailed  EventKind = "colonization_failed"
	EventExplorationComplete EventKind = "exploration_complete"
	EventCombat              EventKind = "combat"
	EventRecycleComplete     EventKind = "recycle_complete"
	EventTransportDelivered  EventKind = "transport_delivered"
	EventGuardRepair         EventKind = "guard_repair"
	EventDispatch            EventKind = "dispatch"
	EventRecall              EventKind = "recall"
)

// JournalRow is one observed effect of a tick. Rows are append-only and
// shaped for the GreptimeDB journal table as well as JSONL export.
type JournalRow struct {
	Universe  string    `json:"universe"` // TAG
	Tick      int64     `json:"tick"`     // TAG
	Kind      EventKind `json:"kind"`     // FIELD
	PlanetID  string    `json:"planet_id,omitempty"`
	FleetID   string    `json:"fleet_id,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Metal     int64     `json:"metal,omitempty"`
	Crystal   int64     `json:"crystal,omitempty"`
	Deuterium int64     `json:"deuterium,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// JournalTableName holds the table name used when writing journal rows to
// GreptimeDB. Defaults to "tick_journal" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var JournalTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "tick_journal"
}()

func (JournalRow) TableName() string {
	return JournalTableName
}

// TickSummary is returned by one pipeline pass for logging and testing.
type TickSummary struct {
	Tick            int64
	ResourceChanges int
	FleetEvents     int
	GuardRepairs    int
	Rows            []JournalRow
}
