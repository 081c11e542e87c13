package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingInserter captures flushed batches for assertions.
type recordingInserter struct {
	mu      sync.Mutex
	batches [][]Event
	err     error
}

func (r *recordingInserter) BatchInsert(_ context.Context, events []Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	batch := make([]Event, len(events))
	copy(batch, events)
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recordingInserter) totalEvents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func (r *recordingInserter) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestCollectorFlushesAtBatchSize(t *testing.T) {
	store := &recordingInserter{}
	c := NewCollector(store, 3, time.Hour)

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})
	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})
	if store.batchCount() != 0 {
		t.Fatal("should not flush before reaching batch size")
	}

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})
	if store.batchCount() != 1 {
		t.Fatalf("expected 1 flush at batch size, got %d", store.batchCount())
	}
	if store.totalEvents() != 3 {
		t.Errorf("expected 3 events flushed, got %d", store.totalEvents())
	}
}

func TestCollectorAssignsIDAndTimestamp(t *testing.T) {
	store := &recordingInserter{}
	c := NewCollector(store, 1, time.Hour)

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionPlantAdded})

	if store.batchCount() != 1 {
		t.Fatal("expected immediate flush with batch size 1")
	}
	ev := store.batches[0][0]
	if ev.ID == "" {
		t.Error("event should get an ID")
	}
	if ev.OccurredAt.IsZero() {
		t.Error("event should get a timestamp")
	}
}

func TestCollectorPreservesProvidedFields(t *testing.T) {
	store := &recordingInserter{}
	c := NewCollector(store, 1, time.Hour)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Record(Event{ID: "fixed", GardenID: "g1", ActorID: "u1", Action: ActionMemberInvited, OccurredAt: at})

	ev := store.batches[0][0]
	if ev.ID != "fixed" {
		t.Errorf("ID should be preserved, got %q", ev.ID)
	}
	if !ev.OccurredAt.Equal(at) {
		t.Errorf("timestamp should be preserved, got %v", ev.OccurredAt)
	}
}

func TestCollectorStopFlushesRemainder(t *testing.T) {
	store := &recordingInserter{}
	c := NewCollector(store, 100, 50*time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionGardenEdited})
	c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	if store.totalEvents() != 1 {
		t.Errorf("expected the buffered event to be flushed on stop, got %d", store.totalEvents())
	}
}

func TestCollectorTimerFlush(t *testing.T) {
	store := &recordingInserter{}
	c := NewCollector(store, 100, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Start(ctx)

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionMemberLeft})

	deadline := time.After(2 * time.Second)
	for store.totalEvents() == 0 {
		select {
		case <-deadline:
			t.Fatal("timer flush never happened")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestCollectorInsertErrorDropsBatch(t *testing.T) {
	store := &recordingInserter{err: errors.New("db down")}
	c := NewCollector(store, 1, time.Hour)

	// Errors are logged, not returned; a failed batch is dropped.
	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})
	if store.totalEvents() != 1 {
		t.Errorf("expected only the post-recovery event, got %d", store.totalEvents())
	}
}

// stubMetrics records the calls made through the MetricsRecorder interface.
type stubMetrics struct {
	mu         sync.Mutex
	bufferSize int
	flushes    map[string]int
	events     int
}

func (s *stubMetrics) SetActivityBufferSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bufferSize = n
}

func (s *stubMetrics) IncActivityFlush(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushes == nil {
		s.flushes = map[string]int{}
	}
	s.flushes[status]++
}

func (s *stubMetrics) AddActivityEvents(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events += n
}

func TestCollectorMetrics(t *testing.T) {
	store := &recordingInserter{}
	c := NewCollector(store, 2, time.Hour)
	m := &stubMetrics{}
	c.SetMetrics(m)

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})
	m.mu.Lock()
	if m.bufferSize != 1 {
		t.Errorf("buffer gauge: got %d, want 1", m.bufferSize)
	}
	m.mu.Unlock()

	c.Record(Event{GardenID: "g1", ActorID: "u1", Action: ActionCareLogged})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flushes["ok"] != 1 {
		t.Errorf("ok flushes: got %d, want 1", m.flushes["ok"])
	}
	if m.events != 2 {
		t.Errorf("events counter: got %d, want 2", m.events)
	}
	if m.bufferSize != 0 {
		t.Errorf("buffer gauge after flush: got %d, want 0", m.bufferSize)
	}
}
