package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldreport-backend/internal/actacache"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/storage"
)

const (
	maxActaSize     = 25 << 20
	maxActaImagenes = 20
)

type ActaHandler struct {
	storage *storage.Client
	actas   actacache.Store
	log     *zap.Logger
}

func NewActaHandler(st *storage.Client, actas actacache.Store, log *zap.Logger) *ActaHandler {
	return &ActaHandler{storage: st, actas: actas, log: log}
}

// Subir stages an acta bundle for a session: at most one signed document
// (PDF or image) plus supporting images. Staged entries live in memory
// until report generation consumes them.
func (h *ActaHandler) Subir(c *gin.Context) {
	sesionID := c.PostForm("sesionId")
	if sesionID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Falta sesionId"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Formulario inválido"})
		return
	}

	docs := form.File["acta"]
	imagenes := form.File["imagenes"]
	if len(docs) == 0 && len(imagenes) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "No se recibió ningún archivo"})
		return
	}
	if len(docs) > 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Solo se permite un acta por sesión"})
		return
	}
	if len(imagenes) > maxActaImagenes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Demasiadas imágenes de acta"})
		return
	}

	if len(docs) == 1 {
		asset, err := h.uploadActaFile(docs[0], storage.ActaFolder(sesionID), true)
		if err != nil {
			h.respondUploadError(c, sesionID, err)
			return
		}
		h.actas.SetActa(sesionID, *asset)
	}

	var added []models.ActaAsset
	for _, f := range imagenes {
		asset, err := h.uploadActaFile(f, storage.ActaImagesFolder(sesionID), false)
		if err != nil {
			h.respondUploadError(c, sesionID, err)
			return
		}
		added = append(added, *asset)
	}
	if len(added) > 0 {
		h.actas.AddImagenes(sesionID, added)
	}

	bundle := h.actas.Get(sesionID)
	c.JSON(http.StatusOK, models.ActaUploadResponse{
		OK:       true,
		Mensaje:  "Acta recibida",
		SesionID: sesionID,
		Acta:     bundle.Acta,
		Imagenes: bundle.Imagenes,
	})
}

var errActaTipo = errors.New("unsupported acta file type")

func (h *ActaHandler) uploadActaFile(f *multipart.FileHeader, folder string, allowPDF bool) (*models.ActaAsset, error) {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	contentType, isImage := imageContentTypes[ext]
	switch {
	case isImage:
	case allowPDF && ext == ".pdf":
		contentType = "application/pdf"
	default:
		return nil, errActaTipo
	}
	if f.Size > maxActaSize {
		return nil, errActaTipo
	}

	src, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxActaSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxActaSize {
		return nil, errActaTipo
	}

	path := folder + "/" + uuid.NewString() + ext
	url, err := h.storage.Upload(path, data, contentType, false)
	if err != nil {
		return nil, err
	}
	return &models.ActaAsset{URL: url, PublicID: path}, nil
}

func (h *ActaHandler) respondUploadError(c *gin.Context, sesionID string, err error) {
	if errors.Is(err, errActaTipo) {
		c.JSON(http.StatusBadRequest,
			models.ErrorResponse{Mensaje: "Archivo de acta no permitido (PDF o imagen, máx. 25MB)"})
		return
	}
	h.log.Error("acta upload failed", zap.String("sesionId", sesionID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error subiendo el acta"})
}

// Snapshot returns the staged bundle for a session.
func (h *ActaHandler) Snapshot(c *gin.Context) {
	sesionID := c.Param("sesionId")
	bundle := h.actas.Get(sesionID)
	c.JSON(http.StatusOK, models.ActaSnapshotResponse{
		OK:       true,
		SesionID: sesionID,
		Acta:     bundle.Acta,
		Imagenes: bundle.Imagenes,
	})
}

// DeleteItem removes one staged entry both remotely and locally.
func (h *ActaHandler) DeleteItem(c *gin.Context) {
	sesionID := c.Param("sesionId")

	var req models.ActaDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PublicID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Falta public_id"})
		return
	}

	if err := h.storage.Delete(req.PublicID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.log.Error("acta item delete failed",
			zap.String("sesionId", sesionID), zap.String("publicId", req.PublicID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error eliminando el archivo"})
		return
	}

	if !h.actas.RemoveItem(sesionID, req.PublicID) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Mensaje: "Elemento no encontrado"})
		return
	}
	c.JSON(http.StatusOK, models.OKResponse{OK: true, Mensaje: "Elemento eliminado"})
}

// Clear drops the staged bundle for a session. Remote assets are left
// untouched; the reconciliation sweep collects them later.
func (h *ActaHandler) Clear(c *gin.Context) {
	sesionID := c.Param("sesionId")
	h.actas.Clear(sesionID)
	c.JSON(http.StatusOK, models.OKResponse{OK: true, Mensaje: "Acta descartada"})
}
