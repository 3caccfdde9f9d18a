package history

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType narrates the task change an Event records.
type EventType string

const (
	EventCreation       EventType = "CREATION"
	EventStateChange    EventType = "STATE_CHANGE"
	EventPriorityChange EventType = "PRIORITY_CHANGE"
)

// ParseEventType accepts the canonical names and the older ETAT_CHANGE /
// PRIORITE_CHANGE spellings.
func ParseEventType(s string) (EventType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREATION":
		return EventCreation, true
	case "STATE_CHANGE", "ETAT_CHANGE":
		return EventStateChange, true
	case "PRIORITY_CHANGE", "PRIORITE_CHANGE":
		return EventPriorityChange, true
	default:
		return "", false
	}
}

// Event is one observed change to a task. Once appended to a Log it is
// never modified.
type Event struct {
	ID        string    `json:"id,omitempty"`
	TaskID    uuid.UUID `json:"task_id"`
	TaskName  string    `json:"task_name"`
	Type      EventType `json:"event_type"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value"`
	Timestamp time.Time `json:"timestamp"`
	Priority  string    `json:"priority,omitempty"`

	seq uint64
}

// UnrankedPriority is the rank of events without a recognized priority.
const UnrankedPriority = 999

var priorityRanks = map[string]int{
	"HIGH":    1,
	"HAUTE":   1,
	"MEDIUM":  2,
	"MOYENNE": 2,
	"LOW":     3,
	"FAIBLE":  3,
}

// PriorityRank orders priority labels, most significant first. Missing and
// unrecognized labels both get UnrankedPriority.
func PriorityRank(label string) int {
	if rank, ok := priorityRanks[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return rank
	}
	return UnrankedPriority
}

// KnownPriority reports whether label has a rank of its own.
func KnownPriority(label string) bool {
	return PriorityRank(label) != UnrankedPriority
}
