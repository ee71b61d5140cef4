package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/storage"
)

// maxEvidenciaSize caps one uploaded photo.
const maxEvidenciaSize = 25 << 20

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type EvidenceHandler struct {
	db      *database.Client
	storage *storage.Client
	log     *zap.Logger
}

func NewEvidenceHandler(db *database.Client, st *storage.Client, log *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{db: db, storage: st, log: log}
}

// Subir receives one before/after photo plus its session metadata, pushes
// the bytes to object storage and records the evidence row.
func (h *EvidenceHandler) Subir(c *gin.Context) {
	sesionID := c.PostForm("sesionId")
	tipo := c.PostForm("tipo")
	ubicacion := c.PostForm("ubicacion")
	observacion := c.PostForm("observacion")

	file, err := c.FormFile("imagen")
	if err != nil || sesionID == "" || tipo == "" || ubicacion == "" {
		c.JSON(http.StatusBadRequest,
			models.ErrorResponse{Mensaje: "Falta imagen, sesionId, tipo o ubicación"})
		return
	}
	if tipo != models.TipoPrevia && tipo != models.TipoPosterior {
		c.JSON(http.StatusBadRequest,
			models.ErrorResponse{Mensaje: `Tipo de imagen inválido. Debe ser "previa" o "posterior"`})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := imageContentTypes[ext]
	if !ok || file.Size > maxEvidenciaSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Formato de imagen no permitido"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "No se pudo leer la imagen"})
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxEvidenciaSize+1))
	if err != nil || int64(len(data)) > maxEvidenciaSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Formato de imagen no permitido"})
		return
	}

	normalized := NormalizeBaseName(file.Filename)
	objectPath := storage.FolderEvidencias + "/" + uuid.NewString() + "-" + normalized + ext

	url, err := h.storage.Upload(objectPath, data, contentType, false)
	if err != nil {
		h.log.Error("evidence upload failed",
			zap.String("sesionId", sesionID), zap.String("path", objectPath), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error subiendo la imagen"})
		return
	}

	ev := &models.Evidencia{
		NombreOriginal:        normalized,
		NombreArchivoOriginal: file.Filename,
		URL:                   url,
		PublicID:              objectPath,
		SesionID:              sesionID,
		Tipo:                  tipo,
		Ubicacion:             ubicacion,
		Observacion:           observacion,
		FechaSubida:           time.Now().UTC(),
	}
	if err := h.db.InsertEvidencia(c.Request.Context(), ev); err != nil {
		h.log.Error("evidence persist failed",
			zap.String("sesionId", sesionID), zap.String("path", objectPath), zap.Error(err))
		// Undo the upload so storage and database stay in step.
		if derr := h.storage.Delete(objectPath); derr != nil {
			h.log.Warn("evidence upload rollback failed", zap.String("path", objectPath), zap.Error(derr))
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error guardando la imagen"})
		return
	}

	c.JSON(http.StatusCreated, models.SubirImagenResponse{
		Mensaje: "Imagen subida correctamente",
		URL:     url,
	})
}

// NormalizeBaseName lower-cases a filename's base and collapses whitespace
// runs to single underscores. Matching normalized names let clients verify
// pairing order.
func NormalizeBaseName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.ToLower(strings.TrimSpace(base))
	return strings.Join(strings.Fields(base), "_")
}
