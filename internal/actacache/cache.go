// Package actacache keeps the per-session acta bundles uploaded between
// the acta endpoints and report generation. The store is keyed by session
// id and every read-modify sequence runs under the store lock, so a report
// generation draining a bundle never interleaves with a concurrent upload
// for the same session.
package actacache

import (
	"context"
	"sync"
	"time"

	"fieldreport-backend/internal/models"
)

// Bundle is the transient acta state of one session: at most one signed
// document plus supporting images.
type Bundle struct {
	Acta     *models.ActaAsset
	Imagenes []models.ActaAsset
}

func (b Bundle) Empty() bool {
	return b.Acta == nil && len(b.Imagenes) == 0
}

// Store is the acta bundle contract. Backed in-memory today; a shared
// cache implementation can replace it behind the same interface.
type Store interface {
	Get(sesionID string) Bundle
	SetActa(sesionID string, a models.ActaAsset)
	AddImagenes(sesionID string, imgs []models.ActaAsset)
	// RemoveItem drops the entry with the given public id (document or
	// image) and reports whether anything matched.
	RemoveItem(sesionID, publicID string) bool
	Clear(sesionID string)
	// Drain returns the bundle and empties it in one atomic step. A second
	// drain for the same session sees an empty bundle.
	Drain(sesionID string) Bundle
}

type entry struct {
	bundle  Bundle
	touched time.Time
}

// Memory is the in-process Store. Entries untouched for longer than ttl
// are swept; ttl<=0 disables sweeping.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: make(map[string]*entry), ttl: ttl}
}

// StartSweeper runs the TTL sweep until ctx is cancelled.
func (m *Memory) StartSweeper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.sweep(time.Now())
			}
		}
	}()
}

func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if now.Sub(e.touched) > m.ttl {
			delete(m.entries, id)
		}
	}
}

func (m *Memory) get(sesionID string) *entry {
	e, ok := m.entries[sesionID]
	if !ok {
		e = &entry{}
		m.entries[sesionID] = e
	}
	e.touched = time.Now()
	return e
}

func (m *Memory) Get(sesionID string) Bundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sesionID]
	if !ok {
		return Bundle{}
	}
	return snapshot(e.bundle)
}

func (m *Memory) SetActa(sesionID string, a models.ActaAsset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sesionID).bundle.Acta = &a
}

func (m *Memory) AddImagenes(sesionID string, imgs []models.ActaAsset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.get(sesionID)
	e.bundle.Imagenes = append(e.bundle.Imagenes, imgs...)
}

func (m *Memory) RemoveItem(sesionID, publicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sesionID]
	if !ok {
		return false
	}
	if e.bundle.Acta != nil && e.bundle.Acta.PublicID == publicID {
		e.bundle.Acta = nil
		return true
	}
	for i, img := range e.bundle.Imagenes {
		if img.PublicID == publicID {
			e.bundle.Imagenes = append(e.bundle.Imagenes[:i], e.bundle.Imagenes[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Memory) Clear(sesionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sesionID)
}

func (m *Memory) Drain(sesionID string) Bundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sesionID]
	if !ok {
		return Bundle{}
	}
	out := snapshot(e.bundle)
	delete(m.entries, sesionID)
	return out
}

func snapshot(b Bundle) Bundle {
	out := Bundle{}
	if b.Acta != nil {
		a := *b.Acta
		out.Acta = &a
	}
	if len(b.Imagenes) > 0 {
		out.Imagenes = append([]models.ActaAsset(nil), b.Imagenes...)
	}
	return out
}
