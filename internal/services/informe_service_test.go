package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/services"
	"fieldreport-backend/internal/storage"
)

type fakeInformeStore struct {
	mu       sync.Mutex
	informes map[string]*models.Informe
}

func newFakeInformeStore(informes ...*models.Informe) *fakeInformeStore {
	s := &fakeInformeStore{informes: make(map[string]*models.Informe)}
	for _, inf := range informes {
		s.informes[inf.ID.Hex()] = inf
	}
	return s
}

func (s *fakeInformeStore) InformeByID(_ context.Context, id string) (*models.Informe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inf, ok := s.informes[id]; ok {
		copia := *inf
		return &copia, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakeInformeStore) DeleteInforme(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.informes[id.Hex()]; !ok {
		return database.ErrNotFound
	}
	delete(s.informes, id.Hex())
	return nil
}

func (s *fakeInformeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.informes)
}

type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	// paths that answer Delete with a transport failure
	broken map[string]bool
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte), broken: make(map[string]bool)}
}

func (s *fakeObjectStorage) Upload(path string, data []byte, _ string, _ bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return s.PublicURL(path), nil
}

func (s *fakeObjectStorage) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken[path] {
		return errors.New("503 from storage")
	}
	if _, ok := s.objects[path]; !ok {
		return storage.ErrNotFound
	}
	delete(s.objects, path)
	return nil
}

func (s *fakeObjectStorage) Download(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.objects[path]; ok {
		return data, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeObjectStorage) PublicURL(path string) string {
	return "https://cdn.example.com/" + path
}

func (s *fakeObjectStorage) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

func informeDe(owner primitive.ObjectID, publicID string) *models.Informe {
	return &models.Informe{
		ID:          primitive.NewObjectID(),
		Title:       "Informe técnico s-1",
		GeneratedBy: &owner,
		PublicID:    publicID,
	}
}

func TestInformeService_Delete(t *testing.T) {
	owner := primitive.NewObjectID()
	inf := informeDe(owner, "informes/uno.pdf")
	db := newFakeInformeStore(inf)
	st := newFakeObjectStorage()
	st.Upload("informes/uno.pdf", []byte("%PDF"), "application/pdf", false)
	svc := services.NewInformeService(db, st, zap.NewNop())

	cloudResult, err := svc.Delete(context.Background(), inf.ID.Hex(),
		services.Actor{UserID: owner.Hex()})

	require.NoError(t, err)
	assert.Equal(t, "ok", cloudResult)
	assert.False(t, st.has("informes/uno.pdf"))
	assert.Equal(t, 0, db.count())
}

func TestInformeService_Delete_RemoteAlreadyGone(t *testing.T) {
	owner := primitive.NewObjectID()
	inf := informeDe(owner, "informes/fantasma.pdf")
	svc := services.NewInformeService(newFakeInformeStore(inf), newFakeObjectStorage(), zap.NewNop())

	cloudResult, err := svc.Delete(context.Background(), inf.ID.Hex(),
		services.Actor{IsAdmin: true})

	require.NoError(t, err)
	assert.Equal(t, "not found", cloudResult)
}

func TestInformeService_Delete_TransportFailureAborts(t *testing.T) {
	owner := primitive.NewObjectID()
	inf := informeDe(owner, "informes/roto.pdf")
	db := newFakeInformeStore(inf)
	st := newFakeObjectStorage()
	st.broken["informes/roto.pdf"] = true
	svc := services.NewInformeService(db, st, zap.NewNop())

	_, err := svc.Delete(context.Background(), inf.ID.Hex(), services.Actor{IsAdmin: true})

	assert.Error(t, err)
	assert.Equal(t, 1, db.count(), "row survives a failed remote delete")
}

func TestInformeService_Delete_NonOwnerForbidden(t *testing.T) {
	owner := primitive.NewObjectID()
	inf := informeDe(owner, "informes/ajeno.pdf")
	db := newFakeInformeStore(inf)
	st := newFakeObjectStorage()
	st.Upload("informes/ajeno.pdf", []byte("%PDF"), "application/pdf", false)
	svc := services.NewInformeService(db, st, zap.NewNop())

	_, err := svc.Delete(context.Background(), inf.ID.Hex(),
		services.Actor{UserID: primitive.NewObjectID().Hex()})

	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.True(t, st.has("informes/ajeno.pdf"), "remote asset untouched")
	assert.Equal(t, 1, db.count(), "row untouched")
}

func TestInformeService_BulkDelete_MixedResults(t *testing.T) {
	owner := primitive.NewObjectID()
	a := informeDe(owner, "informes/a.pdf")
	b := informeDe(owner, "informes/b.pdf")
	db := newFakeInformeStore(a, b)
	st := newFakeObjectStorage()
	st.Upload("informes/a.pdf", []byte("%PDF"), "application/pdf", false)
	st.Upload("informes/b.pdf", []byte("%PDF"), "application/pdf", false)
	svc := services.NewInformeService(db, st, zap.NewNop())

	missing := primitive.NewObjectID().Hex()
	resp := svc.BulkDelete(context.Background(),
		[]string{a.ID.Hex(), missing, b.ID.Hex()},
		services.Actor{IsAdmin: true})

	assert.False(t, resp.OK)
	assert.Equal(t, 2, resp.Deleted)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, missing, resp.Failed[0].ID)
	assert.Equal(t, "no encontrado", resp.Failed[0].Reason)
	assert.Len(t, resp.Details, 3)
	assert.Equal(t, 0, db.count())
}

func TestInformeService_BulkDelete_AllOK(t *testing.T) {
	owner := primitive.NewObjectID()
	a := informeDe(owner, "informes/a.pdf")
	db := newFakeInformeStore(a)
	st := newFakeObjectStorage()
	st.Upload("informes/a.pdf", []byte("%PDF"), "application/pdf", false)
	svc := services.NewInformeService(db, st, zap.NewNop())

	resp := svc.BulkDelete(context.Background(), []string{a.ID.Hex()}, services.Actor{IsAdmin: true})

	assert.True(t, resp.OK)
	assert.Equal(t, 1, resp.Deleted)
	assert.Empty(t, resp.Failed)
}
