package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldreport-backend/internal/middleware"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
	log     *zap.Logger
}

func NewReportHandler(reports *services.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, log: log}
}

// Generar assembles the session's report and either streams the PDF as an
// attachment or, with ?format=json, returns the stored location.
func (h *ReportHandler) Generar(c *gin.Context) {
	sesionID := c.Param("sesionId")

	opts := services.GenerateOptions{
		TiendaID:         c.Query("tiendaId"),
		Ubicacion:        c.Query("ubicacion"),
		NumeroIncidencia: c.Query("numeroIncidencia"),
		Regional:         c.Query("regional"),
	}
	if p, ok := middleware.GetPrincipal(c); ok {
		opts.UserID = p.UserID
	}

	result, err := h.reports.Generate(c.Request.Context(), sesionID, opts)
	if err != nil {
		if errors.Is(err, services.ErrNoEvidencias) {
			c.JSON(http.StatusNotFound,
				models.ErrorResponse{Mensaje: "No hay imágenes para esta sesión"})
			return
		}
		h.log.Error("report generation failed", zap.String("sesionId", sesionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error generando el informe"})
		return
	}
	defer os.RemoveAll(result.Dir)

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, models.GenerarJSONResponse{
			OK:               true,
			URL:              result.URL,
			PublicID:         result.PublicID,
			IncludesActa:     result.IncludesActa,
			SesionID:         sesionID,
			TiendaID:         opts.TiendaID,
			Ubicacion:        result.Ubicacion,
			NumeroIncidencia: opts.NumeroIncidencia,
		})
		return
	}
	c.FileAttachment(result.FilePath, result.FileName)
}

// Reset discards everything a session has staged so the technician can
// start the visit over.
func (h *ReportHandler) Reset(c *gin.Context) {
	sesionID := c.Param("sesionId")

	deleted, err := h.reports.Reset(c.Request.Context(), sesionID)
	if err != nil {
		h.log.Error("session reset failed", zap.String("sesionId", sesionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error reiniciando la sesión"})
		return
	}
	c.JSON(http.StatusOK, models.ResetResponse{OK: true, Deleted: deleted})
}
