package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldreport-backend/internal/actacache"
	"fieldreport-backend/internal/cleanup"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/pdf"
	"fieldreport-backend/internal/storage"
)

// ErrNoEvidencias means the session has nothing to report on.
var ErrNoEvidencias = errors.New("no evidence images for session")

const defaultUbicacion = "Sitio no especificado"

// Database is the slice of the Mongo client report assembly needs.
type Database interface {
	EvidenciasPorSesion(ctx context.Context, sesionID string) ([]models.Evidencia, error)
	DeleteEvidenciasPorSesion(ctx context.Context, sesionID string) (int64, error)
	TiendaByID(ctx context.Context, id string) (*models.Tienda, error)
	InsertInforme(ctx context.Context, inf *models.Informe) error
}

// ObjectStorage is the slice of the storage client report assembly needs.
type ObjectStorage interface {
	Upload(path string, data []byte, contentType string, upsert bool) (string, error)
	Delete(path string) error
	Download(path string) ([]byte, error)
	PublicURL(path string) string
}

// Fetcher downloads bytes from a public URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ReportService assembles, stores and registers the final report PDF for
// a session, then schedules cleanup of the consumed inputs.
type ReportService struct {
	db      Database
	storage ObjectStorage
	fetcher Fetcher
	actas   actacache.Store
	queue   *cleanup.Queue
	log     *zap.Logger

	logoLeftURL  string
	logoRightURL string
}

func NewReportService(db Database, st ObjectStorage, fetcher Fetcher, actas actacache.Store,
	queue *cleanup.Queue, logoLeftURL, logoRightURL string, log *zap.Logger) *ReportService {
	return &ReportService{
		db:           db,
		storage:      st,
		fetcher:      fetcher,
		actas:        actas,
		queue:        queue,
		log:          log,
		logoLeftURL:  logoLeftURL,
		logoRightURL: logoRightURL,
	}
}

type GenerateOptions struct {
	TiendaID         string
	Ubicacion        string
	NumeroIncidencia string
	Regional         string
	UserID           string // acting user, when known
}

type GenerateResult struct {
	// Dir is the temp directory holding FilePath; the caller removes it
	// after responding.
	Dir      string
	FilePath string
	FileName string

	URL          string
	PublicID     string
	IncludesActa bool
	Ubicacion    string
}

// Generate runs the whole assembly pipeline for one session.
func (s *ReportService) Generate(ctx context.Context, sesionID string, opts GenerateOptions) (*GenerateResult, error) {
	evidencias, err := s.db.EvidenciasPorSesion(ctx, sesionID)
	if err != nil {
		return nil, fmt.Errorf("load evidencias: %w", err)
	}
	if len(evidencias) == 0 {
		return nil, ErrNoEvidencias
	}

	ubicacion, regional := s.resolveUbicacion(ctx, opts)

	dir, err := os.MkdirTemp("", "informe-")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			os.RemoveAll(dir)
		}
	}()

	// 1) Evidence PDF.
	cover := pdf.Cover{
		Title:            "Informe Técnico",
		Ubicacion:        ubicacion,
		Generado:         pdf.FormatFechaBogota(time.Now()),
		NumeroIncidencia: opts.NumeroIncidencia,
		Regional:         regional,
		LogoLeft:         s.fetchOptional(ctx, s.logoLeftURL),
		LogoRight:        s.fetchOptional(ctx, s.logoRightURL),
	}
	pairs := s.fetchPairs(ctx, PairEvidencias(evidencias))

	evidPath := filepath.Join(dir, "evidencias.pdf")
	if _, err := pdf.BuildEvidencePDF(evidPath, cover, pairs); err != nil {
		return nil, err
	}
	mergeSet := []string{evidPath}

	// 2) Acta. Drain is atomic: a second generation for this session sees
	// an empty bundle.
	bundle := s.actas.Drain(sesionID)
	includesActa := false

	if bundle.Acta != nil {
		if actaPath, merged := s.prepareActaDoc(ctx, dir, sesionID, *bundle.Acta); merged {
			mergeSet = append(mergeSet, actaPath)
			includesActa = true
		}
	}
	if len(bundle.Imagenes) > 0 {
		if imgsPath, merged := s.prepareActaImages(ctx, dir, sesionID, bundle.Imagenes); merged {
			mergeSet = append(mergeSet, imgsPath)
			includesActa = true
		}
	}

	// 3) Final merge.
	finalPath := filepath.Join(dir, "final.pdf")
	if err := pdf.Merge(finalPath, mergeSet); err != nil {
		return nil, err
	}
	finalBytes, err := os.ReadFile(finalPath)
	if err != nil {
		return nil, fmt.Errorf("read final pdf: %w", err)
	}

	// 4) Upload, then persist. A DB failure rolls the upload back so no
	// orphan object survives the request.
	title := "Informe técnico " + sesionID
	objectPath := storage.ReportObjectPath(title, finalBytes)
	url, err := s.storage.Upload(objectPath, finalBytes, "application/pdf", false)
	if err != nil {
		return nil, fmt.Errorf("upload informe: %w", err)
	}

	informe := &models.Informe{
		Title:            title,
		SesionID:         sesionID,
		URL:              url,
		PublicID:         objectPath,
		MimeType:         "application/pdf",
		IncludesActa:     includesActa,
		NumeroIncidencia: opts.NumeroIncidencia,
		Regional:         regional,
		Ubicacion:        ubicacion,
		CreatedAt:        time.Now().UTC(),
	}
	if opts.UserID != "" {
		if oid, err := primitive.ObjectIDFromHex(opts.UserID); err == nil {
			informe.GeneratedBy = &oid
		}
	}
	if err := s.db.InsertInforme(ctx, informe); err != nil {
		if derr := s.storage.Delete(objectPath); derr != nil && !errors.Is(derr, storage.ErrNotFound) {
			s.log.Warn("rollback of uploaded informe failed",
				zap.String("path", objectPath), zap.Error(derr))
		}
		return nil, fmt.Errorf("persist informe: %w", err)
	}

	// 5) Consumed evidence is deleted in the background.
	s.enqueueEvidenceCleanup(ctx, sesionID, evidencias)

	ok = true
	return &GenerateResult{
		Dir:          dir,
		FilePath:     finalPath,
		FileName:     fmt.Sprintf("informe_tecnico_%s.pdf", sesionID),
		URL:          url,
		PublicID:     objectPath,
		IncludesActa: includesActa,
		Ubicacion:    ubicacion,
	}, nil
}

// resolveUbicacion enriches the location line from the store directory.
// Lookup failures are never fatal; the caller-supplied or default string
// stands in.
func (s *ReportService) resolveUbicacion(ctx context.Context, opts GenerateOptions) (string, string) {
	ubicacion := opts.Ubicacion
	if ubicacion == "" {
		ubicacion = defaultUbicacion
	}
	regional := opts.Regional

	if opts.TiendaID != "" {
		tienda, err := s.db.TiendaByID(ctx, opts.TiendaID)
		if err != nil {
			s.log.Warn("tienda lookup failed for informe",
				zap.String("tiendaId", opts.TiendaID), zap.Error(err))
		} else {
			ubicacion = fmt.Sprintf("%s - %s, %s", tienda.Nombre, tienda.Departamento, tienda.Ciudad)
			if regional == "" {
				regional = tienda.Regional
			}
		}
	}
	return ubicacion, regional
}

// fetchPairs downloads both sides of each pair. A failed fetch drops that
// pair from the report without aborting the job.
func (s *ReportService) fetchPairs(ctx context.Context, paired [][2]models.Evidencia) []pdf.Pair {
	out := make([]pdf.Pair, 0, len(paired))
	for _, p := range paired {
		antes, err := s.fetcher.Fetch(ctx, p[0].URL)
		if err != nil {
			s.log.Warn("skipping pair: before image fetch failed",
				zap.String("url", p[0].URL), zap.Error(err))
			continue
		}
		despues, err := s.fetcher.Fetch(ctx, p[1].URL)
		if err != nil {
			s.log.Warn("skipping pair: after image fetch failed",
				zap.String("url", p[1].URL), zap.Error(err))
			continue
		}
		out = append(out, pdf.Pair{
			Antes:   pdf.Image{Data: antes, Observacion: p[0].Observacion},
			Despues: pdf.Image{Data: despues, Observacion: p[1].Observacion},
		})
	}
	return out
}

func (s *ReportService) fetchOptional(ctx context.Context, url string) []byte {
	if url == "" {
		return nil
	}
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.log.Warn("logo fetch failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	return data
}

// prepareActaDoc downloads the signed document and, when it passes the PDF
// magic check, writes it into the merge set. The remote asset is destroyed
// either way.
func (s *ReportService) prepareActaDoc(ctx context.Context, dir, sesionID string, acta models.ActaAsset) (string, bool) {
	defer s.destroyActaAsset(acta)

	data, err := s.fetcher.Fetch(ctx, acta.URL)
	if err != nil && acta.PublicID != "" {
		data, err = s.storage.Download(acta.PublicID)
	}
	if err != nil {
		s.log.Warn("acta download failed", zap.String("sesionId", sesionID), zap.Error(err))
		return "", false
	}
	if !pdf.IsPDF(data) {
		s.log.Warn("acta is not a valid PDF, omitting", zap.String("sesionId", sesionID))
		return "", false
	}

	path := filepath.Join(dir, "acta.pdf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("acta temp write failed", zap.String("sesionId", sesionID), zap.Error(err))
		return "", false
	}
	return path, true
}

// prepareActaImages renders the supporting images one per page. Only the
// successfully rendered images' remote assets are destroyed.
func (s *ReportService) prepareActaImages(ctx context.Context, dir, sesionID string, imagenes []models.ActaAsset) (string, bool) {
	var data [][]byte
	var fetched []models.ActaAsset
	for _, img := range imagenes {
		b, err := s.fetcher.Fetch(ctx, img.URL)
		if err != nil {
			s.log.Warn("acta image fetch failed, skipping",
				zap.String("url", img.URL), zap.Error(err))
			continue
		}
		data = append(data, b)
		fetched = append(fetched, img)
	}
	if len(data) == 0 {
		return "", false
	}

	path := filepath.Join(dir, "acta-imagenes.pdf")
	if _, err := pdf.BuildImagePagesPDF(path, data); err != nil {
		s.log.Warn("acta images pdf failed", zap.String("sesionId", sesionID), zap.Error(err))
		return "", false
	}

	for _, img := range fetched {
		s.destroyActaAsset(img)
	}
	return path, true
}

func (s *ReportService) destroyActaAsset(a models.ActaAsset) {
	if a.PublicID == "" {
		return
	}
	if err := s.storage.Delete(a.PublicID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("acta asset delete failed", zap.String("publicId", a.PublicID), zap.Error(err))
	}
}

func (s *ReportService) enqueueEvidenceCleanup(ctx context.Context, sesionID string, evidencias []models.Evidencia) {
	for _, ev := range evidencias {
		if ev.PublicID == "" {
			continue
		}
		s.queue.Enqueue(ctx, cleanup.Task{
			Kind:     cleanup.KindStorageObject,
			SesionID: sesionID,
			Path:     ev.PublicID,
		})
	}
	s.queue.Enqueue(ctx, cleanup.Task{Kind: cleanup.KindEvidenceRows, SesionID: sesionID})
}

// Reset synchronously deletes everything a session has staged: evidence
// assets and rows plus any acta bundle.
func (s *ReportService) Reset(ctx context.Context, sesionID string) (models.ResetDetail, error) {
	detail := models.ResetDetail{}

	evidencias, err := s.db.EvidenciasPorSesion(ctx, sesionID)
	if err != nil {
		return detail, fmt.Errorf("load evidencias: %w", err)
	}
	for _, ev := range evidencias {
		if ev.PublicID == "" {
			continue
		}
		if err := s.storage.Delete(ev.PublicID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("evidence asset delete failed", zap.String("publicId", ev.PublicID), zap.Error(err))
		}
	}
	n, err := s.db.DeleteEvidenciasPorSesion(ctx, sesionID)
	if err != nil {
		return detail, fmt.Errorf("delete evidencias: %w", err)
	}
	detail.Imagenes = int(n)

	bundle := s.actas.Drain(sesionID)
	if bundle.Acta != nil {
		s.destroyActaAsset(*bundle.Acta)
		detail.ActaPdf = true
	}
	for _, img := range bundle.Imagenes {
		s.destroyActaAsset(img)
	}
	detail.ActaImgs = len(bundle.Imagenes)

	return detail, nil
}
