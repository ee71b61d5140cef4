// Package cleanup runs the post-report deletion of consumed assets as an
// explicit background queue instead of fire-and-forget goroutines: tasks
// retry with backoff and land in a dead-letter collection when exhausted.
package cleanup

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fieldreport-backend/internal/storage"
)

const (
	// KindStorageObject deletes one remote object by path.
	KindStorageObject = "storage_object"
	// KindEvidenceRows deletes a session's evidence rows.
	KindEvidenceRows = "evidence_rows"
)

type Task struct {
	Kind     string
	SesionID string
	Path     string
	Attempts int
}

// ObjectDeleter is the storage side of a task.
type ObjectDeleter interface {
	Delete(path string) error
}

// Store is the database side: row deletion plus the dead-letter sink.
type Store interface {
	DeleteEvidenciasPorSesion(ctx context.Context, sesionID string) (int64, error)
	InsertDeadLetter(ctx context.Context, kind, sesionID, path, reason string) error
}

type Queue struct {
	tasks       chan Task
	storage     ObjectDeleter
	store       Store
	log         *zap.Logger
	maxAttempts int
	baseBackoff time.Duration
}

func NewQueue(storage ObjectDeleter, store Store, log *zap.Logger) *Queue {
	return &Queue{
		tasks:       make(chan Task, 256),
		storage:     storage,
		store:       store,
		log:         log,
		maxAttempts: 3,
		baseBackoff: time.Second,
	}
}

// Enqueue schedules a task. A full queue dead-letters immediately rather
// than blocking a request handler.
func (q *Queue) Enqueue(ctx context.Context, t Task) {
	select {
	case q.tasks <- t:
	default:
		q.log.Warn("cleanup queue full, dead-lettering",
			zap.String("kind", t.Kind), zap.String("path", t.Path))
		q.deadLetter(ctx, t, "queue full")
	}
}

// Run processes tasks until ctx is cancelled. Meant to run as one
// goroutine from main.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-q.tasks:
			q.process(ctx, t)
		}
	}
}

func (q *Queue) process(ctx context.Context, t Task) {
	err := q.execute(ctx, t)
	if err == nil {
		q.log.Debug("cleanup task done",
			zap.String("kind", t.Kind), zap.String("sesionId", t.SesionID), zap.String("path", t.Path))
		return
	}

	t.Attempts++
	if t.Attempts >= q.maxAttempts {
		q.log.Warn("cleanup task exhausted retries",
			zap.String("kind", t.Kind), zap.String("path", t.Path), zap.Error(err))
		q.deadLetter(ctx, t, err.Error())
		return
	}

	backoff := q.baseBackoff << (t.Attempts - 1)
	q.log.Debug("cleanup task failed, retrying",
		zap.String("kind", t.Kind), zap.Int("attempt", t.Attempts), zap.Error(err))

	select {
	case <-ctx.Done():
	case <-time.After(backoff):
		q.Enqueue(ctx, t)
	}
}

func (q *Queue) execute(ctx context.Context, t Task) error {
	switch t.Kind {
	case KindStorageObject:
		err := q.storage.Delete(t.Path)
		if errors.Is(err, storage.ErrNotFound) {
			// Already gone; the deletion is done.
			return nil
		}
		return err
	case KindEvidenceRows:
		_, err := q.store.DeleteEvidenciasPorSesion(ctx, t.SesionID)
		return err
	default:
		q.log.Warn("unknown cleanup task kind", zap.String("kind", t.Kind))
		return nil
	}
}

func (q *Queue) deadLetter(ctx context.Context, t Task, reason string) {
	if err := q.store.InsertDeadLetter(ctx, t.Kind, t.SesionID, t.Path, reason); err != nil {
		q.log.Error("dead-letter write failed",
			zap.String("kind", t.Kind), zap.String("path", t.Path), zap.Error(err))
	}
}
