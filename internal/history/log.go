// Package history keeps an in-memory log of task lifecycle events.
//
// The log lives as long as the process: there is no persistence and no
// eviction. Entries are kept in append order; every query computes its own
// presentation order.
package history

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Log is an append-only sequence of task events, safe for concurrent use.
type Log struct {
	clock  Clock
	logger *slog.Logger

	mu     sync.RWMutex
	events []Event
	seq    uint64

	subMu sync.RWMutex
	subs  map[chan Event]struct{}
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the time source used to stamp appended events.
func WithClock(c Clock) Option {
	return func(l *Log) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLog returns an empty log.
func NewLog(opts ...Option) *Log {
	l := &Log{
		clock:  SystemClock,
		logger: slog.New(slog.DiscardHandler),
		subs:   make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append stamps e with the current time and stores it at the end of the log.
// Any timestamp set by the caller is replaced. The stored copy is returned.
func (l *Log) Append(e Event) Event {
	if e.Priority != "" && !KnownPriority(e.Priority) {
		l.logger.Warn("unrecognized task priority, event will sort last",
			slog.String("task_id", e.TaskID.String()),
			slog.String("priority", e.Priority))
	}

	l.mu.Lock()
	l.seq++
	e.seq = l.seq
	e.Timestamp = l.clock.Now()
	l.events = append(l.events, e)
	l.mu.Unlock()

	l.logger.Debug("task history event recorded",
		slog.String("task_id", e.TaskID.String()),
		slog.String("event_type", string(e.Type)))

	l.publish(e)
	return e
}

// ByProject returns the events of the given tasks, newest first. The log does
// not know which tasks belong to a project; the caller passes the current
// task ids of projectID.
func (l *Log) ByProject(projectID uuid.UUID, taskIDs []uuid.UUID) []Event {
	events := l.filter(taskIDs)
	slices.SortStableFunc(events, byRecency)
	return events
}

// ByPriority returns the same events as ByProject ordered by priority rank,
// then newest first within a rank.
func (l *Log) ByPriority(projectID uuid.UUID, taskIDs []uuid.UUID) []Event {
	events := l.filter(taskIDs)
	slices.SortStableFunc(events, func(a, b Event) int {
		if c := cmp.Compare(PriorityRank(a.Priority), PriorityRank(b.Priority)); c != 0 {
			return c
		}
		return byRecency(a, b)
	})
	return events
}

// Clear drops every event.
func (l *Log) Clear() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

// Len returns the number of stored events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Subscribe returns a channel receiving every event appended from now on and
// a function that detaches and closes it. Slow subscribers miss events
// rather than blocking Append.
func (l *Log) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	l.subMu.Lock()
	l.subs[ch] = struct{}{}
	l.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, ch)
			l.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (l *Log) publish(e Event) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()
	for ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (l *Log) filter(taskIDs []uuid.UUID) []Event {
	wanted := make(map[uuid.UUID]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		wanted[id] = struct{}{}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0)
	for _, e := range l.events {
		if _, ok := wanted[e.TaskID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// byRecency sorts newest first; events sharing a timestamp fall back to
// append order, later first.
func byRecency(a, b Event) int {
	if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(b.seq, a.seq)
}
