package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/storage"
)

// ErrForbidden means the actor owns neither the report nor admin rights.
var ErrForbidden = errors.New("actor may not delete this informe")

// InformeStore is the slice of the Mongo client deletion needs.
type InformeStore interface {
	InformeByID(ctx context.Context, id string) (*models.Informe, error)
	DeleteInforme(ctx context.Context, id primitive.ObjectID) error
}

// Actor identifies who is asking for a deletion.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// InformeService deletes stored reports, remote asset first.
type InformeService struct {
	db      InformeStore
	storage ObjectStorage
	log     *zap.Logger
}

func NewInformeService(db InformeStore, st ObjectStorage, log *zap.Logger) *InformeService {
	return &InformeService{db: db, storage: st, log: log}
}

// Delete removes one report. A remote object that is already gone counts
// as deleted; a transport failure aborts before the row is touched so the
// record can be retried.
func (s *InformeService) Delete(ctx context.Context, id string, actor Actor) (string, error) {
	informe, err := s.db.InformeByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin {
		if informe.GeneratedBy == nil || informe.GeneratedBy.Hex() != actor.UserID {
			return "", ErrForbidden
		}
	}

	cloudResult := "skipped"
	if informe.PublicID != "" {
		switch err := s.storage.Delete(informe.PublicID); {
		case err == nil:
			cloudResult = "ok"
		case errors.Is(err, storage.ErrNotFound):
			cloudResult = "not found"
		default:
			return "", fmt.Errorf("delete remote informe: %w", err)
		}
	}

	if err := s.db.DeleteInforme(ctx, informe.ID); err != nil {
		return "", err
	}
	s.log.Info("informe deleted",
		zap.String("id", id), zap.String("cloudResult", cloudResult))
	return cloudResult, nil
}

// BulkDelete runs Delete for each id concurrently and reports per-id
// outcomes. One failure flips the overall ok flag but never stops the
// rest of the batch.
func (s *InformeService) BulkDelete(ctx context.Context, ids []string, actor Actor) models.BulkDeleteResponse {
	details := make([]models.BulkDeleteDetail, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			cloudResult, err := s.Delete(ctx, id, actor)
			if err != nil {
				details[i] = models.BulkDeleteDetail{ID: id, Reason: reasonFor(err)}
				return
			}
			details[i] = models.BulkDeleteDetail{ID: id, OK: true, CloudResult: cloudResult}
		}(i, id)
	}
	wg.Wait()

	resp := models.BulkDeleteResponse{OK: true, Failed: []models.BulkDeleteFailure{}, Details: details}
	for _, d := range details {
		if d.OK {
			resp.Deleted++
			continue
		}
		resp.OK = false
		resp.Failed = append(resp.Failed, models.BulkDeleteFailure{ID: d.ID, Reason: d.Reason})
	}
	return resp
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return "no encontrado"
	case errors.Is(err, ErrForbidden):
		return "acceso denegado"
	default:
		return err.Error()
	}
}
