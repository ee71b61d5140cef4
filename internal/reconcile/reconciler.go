// Package reconcile periodically diffs storage listings against database
// records and deletes aged orphan objects that best-effort cleanup missed.
package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fieldreport-backend/internal/storage"
)

type ObjectStore interface {
	List(prefix string) ([]storage.Object, error)
	Delete(path string) error
}

type Records interface {
	InformePublicIDs(ctx context.Context) (map[string]struct{}, error)
	EvidenciaPublicIDs(ctx context.Context) (map[string]struct{}, error)
}

type Reconciler struct {
	objects ObjectStore
	records Records
	log     *zap.Logger
	// minAge protects objects uploaded moments ago whose database row may
	// not be committed yet.
	minAge time.Duration
}

func New(objects ObjectStore, records Records, minAge time.Duration, log *zap.Logger) *Reconciler {
	if minAge <= 0 {
		minAge = 24 * time.Hour
	}
	return &Reconciler{objects: objects, records: records, minAge: minAge, log: log}
}

// Run sweeps on the given interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one reconciliation pass over the report and evidence folders.
func (r *Reconciler) Sweep(ctx context.Context) {
	informes, err := r.records.InformePublicIDs(ctx)
	if err != nil {
		r.log.Warn("reconcile: informe lookup failed", zap.Error(err))
		return
	}
	evidencias, err := r.records.EvidenciaPublicIDs(ctx)
	if err != nil {
		r.log.Warn("reconcile: evidencia lookup failed", zap.Error(err))
		return
	}

	removed := r.sweepPrefix(storage.FolderInformes, informes)
	removed += r.sweepPrefix(storage.FolderEvidencias, evidencias)
	if removed > 0 {
		r.log.Info("reconcile: removed orphan objects", zap.Int("count", removed))
	}
}

func (r *Reconciler) sweepPrefix(prefix string, known map[string]struct{}) int {
	objects, err := r.objects.List(prefix)
	if err != nil {
		r.log.Warn("reconcile: list failed", zap.String("prefix", prefix), zap.Error(err))
		return 0
	}

	cutoff := time.Now().Add(-r.minAge)
	removed := 0
	for _, obj := range objects {
		if _, ok := known[obj.Path]; ok {
			continue
		}
		if obj.UpdatedAt.IsZero() || obj.UpdatedAt.After(cutoff) {
			continue
		}
		err := r.objects.Delete(obj.Path)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.log.Warn("reconcile: delete failed", zap.String("path", obj.Path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}
