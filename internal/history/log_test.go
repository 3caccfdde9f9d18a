package history_test

import (
	"sync"
	"testing"
	"time"

	"pjm/internal/history"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances one second on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestLog() *history.Log {
	return history.NewLog(history.WithClock(&stepClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}))
}

func TestAppend_StampsTimestampFromClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	log := history.NewLog(history.WithClock(history.ClockFunc(func() time.Time { return fixed })))

	stored := log.Append(history.Event{
		TaskID:    uuid.New(),
		Type:      history.EventCreation,
		NewValue:  "TODO",
		Timestamp: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, fixed, stored.Timestamp)
	assert.Equal(t, 1, log.Len())
}

func TestByProject_CreationThenStateChange(t *testing.T) {
	log := newTestLog()
	projectID := uuid.New()
	taskID := uuid.New()

	log.Append(history.Event{TaskID: taskID, TaskName: "Write docs", Type: history.EventCreation, NewValue: "TODO", Priority: "HIGH"})
	log.Append(history.Event{TaskID: taskID, TaskName: "Write docs", Type: history.EventStateChange, OldValue: "TODO", NewValue: "IN_PROGRESS", Priority: "HIGH"})

	events := log.ByProject(projectID, []uuid.UUID{taskID})

	require.Len(t, events, 2)
	assert.Equal(t, history.EventStateChange, events[0].Type)
	assert.Equal(t, "TODO", events[0].OldValue)
	assert.Equal(t, "IN_PROGRESS", events[0].NewValue)
	assert.Equal(t, history.EventCreation, events[1].Type)
}

func TestByProject_FiltersByRoster(t *testing.T) {
	log := newTestLog()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	log.Append(history.Event{TaskID: a, Type: history.EventCreation, NewValue: "TODO"})
	log.Append(history.Event{TaskID: b, Type: history.EventCreation, NewValue: "TODO"})
	log.Append(history.Event{TaskID: c, Type: history.EventCreation, NewValue: "TODO"})

	overlapping := log.ByProject(uuid.New(), []uuid.UUID{a, c, uuid.New()})
	require.Len(t, overlapping, 2)
	for _, e := range overlapping {
		assert.Contains(t, []uuid.UUID{a, c}, e.TaskID)
	}

	disjoint := log.ByProject(uuid.New(), []uuid.UUID{uuid.New()})
	assert.NotNil(t, disjoint)
	assert.Empty(t, disjoint)

	assert.Empty(t, log.ByProject(uuid.New(), nil))
}

func TestByProject_IsRepeatable(t *testing.T) {
	log := newTestLog()
	id := uuid.New()
	log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})
	log.Append(history.Event{TaskID: id, Type: history.EventStateChange, OldValue: "TODO", NewValue: "DONE"})

	first := log.ByProject(uuid.Nil, []uuid.UUID{id})
	second := log.ByProject(uuid.Nil, []uuid.UUID{id})
	assert.Equal(t, first, second)
}

func TestByProject_SameTimestampKeepsLatestAppendFirst(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	log := history.NewLog(history.WithClock(history.ClockFunc(func() time.Time { return fixed })))
	id := uuid.New()

	log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})
	log.Append(history.Event{TaskID: id, Type: history.EventStateChange, OldValue: "TODO", NewValue: "DONE"})

	events := log.ByProject(uuid.Nil, []uuid.UUID{id})
	require.Len(t, events, 2)
	assert.Equal(t, history.EventStateChange, events[0].Type)
}

func TestByPriority_OrdersByRankThenRecency(t *testing.T) {
	log := newTestLog()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	log.Append(history.Event{TaskID: ids[0], TaskName: "none", Type: history.EventCreation, NewValue: "TODO"})
	log.Append(history.Event{TaskID: ids[1], TaskName: "low", Type: history.EventCreation, NewValue: "TODO", Priority: "LOW"})
	log.Append(history.Event{TaskID: ids[2], TaskName: "high", Type: history.EventCreation, NewValue: "TODO", Priority: "HIGH"})
	log.Append(history.Event{TaskID: ids[3], TaskName: "medium", Type: history.EventCreation, NewValue: "TODO", Priority: "MEDIUM"})

	events := log.ByPriority(uuid.Nil, ids)

	require.Len(t, events, 4)
	names := []string{events[0].TaskName, events[1].TaskName, events[2].TaskName, events[3].TaskName}
	assert.Equal(t, []string{"high", "medium", "low", "none"}, names)
}

func TestByPriority_EqualRankNewestFirst(t *testing.T) {
	log := newTestLog()
	id := uuid.New()

	log.Append(history.Event{TaskID: id, TaskName: "older", Type: history.EventCreation, NewValue: "TODO", Priority: "HAUTE"})
	log.Append(history.Event{TaskID: id, TaskName: "low", Type: history.EventPriorityChange, OldValue: "HAUTE", NewValue: "FAIBLE", Priority: "FAIBLE"})
	log.Append(history.Event{TaskID: id, TaskName: "newer", Type: history.EventStateChange, OldValue: "TODO", NewValue: "DONE", Priority: "high"})

	events := log.ByPriority(uuid.Nil, []uuid.UUID{id})

	require.Len(t, events, 3)
	assert.Equal(t, "newer", events[0].TaskName)
	assert.Equal(t, "older", events[1].TaskName)
	assert.Equal(t, "low", events[2].TaskName)
}

func TestByPriority_UnknownLabelSortsWithMissing(t *testing.T) {
	log := newTestLog()
	id := uuid.New()

	log.Append(history.Event{TaskID: id, TaskName: "urgent", Type: history.EventCreation, NewValue: "TODO", Priority: "URGENT"})
	log.Append(history.Event{TaskID: id, TaskName: "low", Type: history.EventCreation, NewValue: "TODO", Priority: "LOW"})
	log.Append(history.Event{TaskID: id, TaskName: "none", Type: history.EventCreation, NewValue: "TODO"})

	events := log.ByPriority(uuid.Nil, []uuid.UUID{id})

	require.Len(t, events, 3)
	assert.Equal(t, "low", events[0].TaskName)
	assert.Equal(t, "none", events[1].TaskName)
	assert.Equal(t, "urgent", events[2].TaskName)
}

func TestClear(t *testing.T) {
	for _, n := range []int{0, 1, 25} {
		log := newTestLog()
		id := uuid.New()
		for i := 0; i < n; i++ {
			log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})
		}

		log.Clear()
		log.Clear()

		assert.Equal(t, 0, log.Len())
		assert.Empty(t, log.ByProject(uuid.Nil, []uuid.UUID{id}))
	}
}

func TestQueryResultsAreCopies(t *testing.T) {
	log := newTestLog()
	id := uuid.New()
	log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})

	events := log.ByProject(uuid.Nil, []uuid.UUID{id})
	events[0].NewValue = "tampered"

	assert.Equal(t, "TODO", log.ByProject(uuid.Nil, []uuid.UUID{id})[0].NewValue)
}

func TestSubscribe_ReceivesAppendedEvents(t *testing.T) {
	log := newTestLog()
	ch, cancel := log.Subscribe()

	id := uuid.New()
	log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})

	select {
	case e := <-ch:
		assert.Equal(t, id, e.TaskID)
		assert.False(t, e.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Appending after cancel must not panic on the closed channel.
	log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})
}

func TestAppend_Concurrent(t *testing.T) {
	log := history.NewLog()
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Append(history.Event{TaskID: id, Type: history.EventCreation, NewValue: "TODO"})
			_ = log.ByProject(uuid.Nil, []uuid.UUID{id})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, log.Len())
}

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in   string
		want history.EventType
		ok   bool
	}{
		{"CREATION", history.EventCreation, true},
		{"ETAT_CHANGE", history.EventStateChange, true},
		{"state_change", history.EventStateChange, true},
		{" priorite_change\n", history.EventPriorityChange, true},
		{"PRIORITE_CHANGE", history.EventPriorityChange, true},
		{"DELETION", "", false},
	}

	for _, tt := range tests {
		got, ok := history.ParseEventType(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 1, history.PriorityRank("HIGH"))
	assert.Equal(t, 1, history.PriorityRank("haute"))
	assert.Equal(t, 2, history.PriorityRank("MOYENNE"))
	assert.Equal(t, 3, history.PriorityRank("LOW"))
	assert.Equal(t, history.UnrankedPriority, history.PriorityRank(""))
	assert.Equal(t, history.UnrankedPriority, history.PriorityRank("URGENT"))
}
