package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sernajr/eventos-core/internal/infrastructure/logging"
)

// recorderBuffer is the size of the in-memory audit queue. When the queue is
// full, new entries are dropped with a warning rather than blocking the
// operation that produced them.
const recorderBuffer = 256

// writeTimeout bounds each individual audit insert so a wedged database
// cannot stall the drain loop forever.
const writeTimeout = 5 * time.Second

// Recorder decouples audit writes from the operations that produce them.
// Record enqueues without blocking; a single background goroutine drains the
// queue and persists entries serially. Persistence failures are logged and
// never surface to callers.
type Recorder struct {
	repo   Repository
	logger *logging.Logger

	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// NewRecorder creates a recorder draining into repo. Call Start to begin
// processing and Close to flush and stop.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger,
		ch:     make(chan *Entry, recorderBuffer),
		done:   make(chan struct{}),
	}
}

// Start launches the drain goroutine. It returns immediately.
func (r *Recorder) Start() {
	go r.drain()
}

// Record enqueues an audit entry. It never blocks: if the queue is full the
// entry is dropped and a warning logged.
func (r *Recorder) Record(actorID, action, entityType, entityID string, details map[string]any) {
	entry := &Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}

	select {
	case r.ch <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID)
	}
}

// Close stops accepting new entries, flushes what is already queued, and
// waits for the drain goroutine to exit. Safe to call more than once.
func (r *Recorder) Close() {
	r.once.Do(func() {
		close(r.ch)
		<-r.done
	})
}

func (r *Recorder) drain() {
	defer close(r.done)

	for entry := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Create(ctx, entry); err != nil {
			r.logger.Error("failed to persist audit entry",
				"error", err,
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"entity_id", entry.EntityID)
		}
		cancel()
	}
}
