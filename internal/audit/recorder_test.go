package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sernajr/eventos-core/internal/infrastructure/logging"
)

// stubRepository captures created entries in memory.
type stubRepository struct {
	mu      sync.Mutex
	entries []*Entry
	err     error
	block   chan struct{} // if non-nil, Create waits until closed
}

func (s *stubRepository) Create(_ context.Context, entry *Entry) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubRepository) List(_ context.Context, _ Filter) (*ListResult, error) {
	return &ListResult{Entries: []Entry{}}, nil
}

func (s *stubRepository) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestRecorder_RecordAndFlush(t *testing.T) {
	repo := &stubRepository{}
	rec := NewRecorder(repo, logging.Default())
	rec.Start()

	rec.Record("usr-11111111", "identity.login", "identity", "usr-11111111", map[string]any{"username": "marcos"})
	rec.Record("", "identity.login.failed", "identity", "", nil)

	rec.Close()

	if got := repo.count(); got != 2 {
		t.Fatalf("persisted entries = %d, want 2", got)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	first := repo.entries[0]
	if first.Action != "identity.login" {
		t.Errorf("Action = %q, want identity.login", first.Action)
	}
	if first.ActorID != "usr-11111111" {
		t.Errorf("ActorID = %q, want usr-11111111", first.ActorID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt not set on enqueue")
	}
}

func TestRecorder_PersistFailureDoesNotPropagate(t *testing.T) {
	repo := &stubRepository{err: errors.New("disk full")}
	rec := NewRecorder(repo, logging.Default())
	rec.Start()

	// Record must not panic or block even when every write fails.
	rec.Record("usr-11111111", "identity.logout", "identity", "usr-11111111", nil)
	rec.Close()

	if got := repo.count(); got != 0 {
		t.Errorf("persisted entries = %d, want 0", got)
	}
}

func TestRecorder_DropsWhenQueueFull(t *testing.T) {
	repo := &stubRepository{block: make(chan struct{})}
	rec := NewRecorder(repo, logging.Default())
	rec.Start()

	// The drain goroutine is stuck on the first entry; fill the queue past
	// capacity. Record must return promptly instead of blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < recorderBuffer+10; i++ {
			rec.Record("usr-11111111", "identity.login", "identity", "usr-11111111", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	close(repo.block)
	rec.Close()

	if got := repo.count(); got == 0 || got > recorderBuffer+1 {
		t.Errorf("persisted entries = %d, want between 1 and %d", got, recorderBuffer+1)
	}
}

func TestRecorder_CloseIdempotent(t *testing.T) {
	rec := NewRecorder(&stubRepository{}, logging.Default())
	rec.Start()

	rec.Close()
	rec.Close()
}
