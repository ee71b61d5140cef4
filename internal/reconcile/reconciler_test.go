package reconcile_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"fieldreport-backend/internal/reconcile"
	"fieldreport-backend/internal/storage"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]time.Time
}

func (f *fakeObjects) List(prefix string) ([]storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Object
	for path, updated := range f.objects {
		if strings.HasPrefix(path, prefix+"/") {
			out = append(out, storage.Object{Path: path, UpdatedAt: updated})
		}
	}
	return out, nil
}

func (f *fakeObjects) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[path]; !ok {
		return storage.ErrNotFound
	}
	delete(f.objects, path)
	return nil
}

func (f *fakeObjects) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[path]
	return ok
}

type fakeRecords struct {
	informes   map[string]struct{}
	evidencias map[string]struct{}
}

func (f *fakeRecords) InformePublicIDs(context.Context) (map[string]struct{}, error) {
	return f.informes, nil
}

func (f *fakeRecords) EvidenciaPublicIDs(context.Context) (map[string]struct{}, error) {
	return f.evidencias, nil
}

func TestSweep_RemovesOnlyAgedOrphans(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	objects := &fakeObjects{objects: map[string]time.Time{
		"informes/conocido.pdf": old,    // referenced, stays
		"informes/huerfano.pdf": old,    // orphan past cutoff, goes
		"informes/reciente.pdf": recent, // orphan but too new, stays
		"mi-app/suelta.jpg":     old,    // evidence orphan, goes
	}}
	records := &fakeRecords{
		informes:   map[string]struct{}{"informes/conocido.pdf": {}},
		evidencias: map[string]struct{}{},
	}

	r := reconcile.New(objects, records, 24*time.Hour, zap.NewNop())
	r.Sweep(context.Background())

	assert.True(t, objects.has("informes/conocido.pdf"))
	assert.False(t, objects.has("informes/huerfano.pdf"))
	assert.True(t, objects.has("informes/reciente.pdf"))
	assert.False(t, objects.has("mi-app/suelta.jpg"))
}

func TestSweep_ZeroTimestampIsProtected(t *testing.T) {
	objects := &fakeObjects{objects: map[string]time.Time{
		"informes/sin-fecha.pdf": {},
	}}
	records := &fakeRecords{
		informes:   map[string]struct{}{},
		evidencias: map[string]struct{}{},
	}

	r := reconcile.New(objects, records, 24*time.Hour, zap.NewNop())
	r.Sweep(context.Background())

	assert.True(t, objects.has("informes/sin-fecha.pdf"))
}
