package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/middleware"
	"fieldreport-backend/internal/models"
	"fieldreport-backend/internal/services"
	"fieldreport-backend/internal/storage"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type InformesHandler struct {
	db       *database.Client
	storage  *storage.Client
	informes *services.InformeService
	log      *zap.Logger
}

func NewInformesHandler(db *database.Client, st *storage.Client, informes *services.InformeService, log *zap.Logger) *InformesHandler {
	return &InformesHandler{db: db, storage: st, informes: informes, log: log}
}

// shareURL is the link a listing row exposes: the stored URL when present,
// otherwise one derived from the object path.
func (h *InformesHandler) shareURL(inf models.Informe) string {
	if inf.URL != "" {
		return inf.URL
	}
	if inf.PublicID != "" && h.storage != nil {
		return h.storage.PublicURL(inf.PublicID)
	}
	return ""
}

// ParseListParams clamps page/limit to sane bounds: page >= 1, 1 <= limit <= 100.
func ParseListParams(pageStr, limitStr string) (page, limit int) {
	page, _ = strconv.Atoi(pageStr)
	if page < 1 {
		page = defaultPage
	}
	limit, _ = strconv.Atoi(limitStr)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func parseListFilter(c *gin.Context) database.InformeFilter {
	f := database.InformeFilter{
		Search:     c.Query("search"),
		UserID:     c.Query("userId"),
		Regional:   c.Query("regional"),
		Incidencia: c.Query("incidencia"),
	}
	if t, ok := parseDate(c.Query("from")); ok {
		f.From = &t
	}
	if t, ok := parseDate(c.Query("to")); ok {
		// Exclusive upper bound: the whole "to" day is included.
		end := t.AddDate(0, 0, 1)
		f.To = &end
	}
	return f
}

func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// List returns one page of stored reports, newest first.
func (h *InformesHandler) List(c *gin.Context) {
	page, limit := ParseListParams(c.Query("page"), c.Query("limit"))
	filter := parseListFilter(c)

	total, err := h.db.CountInformes(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("informes count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error consultando informes"})
		return
	}
	informes, err := h.db.ListInformes(c.Request.Context(), filter, page, limit)
	if err != nil {
		h.log.Error("informes list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error consultando informes"})
		return
	}

	data := make([]models.InformeItem, 0, len(informes))
	for _, inf := range informes {
		data = append(data, models.InformeItem{Informe: inf, ShareURL: h.shareURL(inf)})
	}

	c.JSON(http.StatusOK, models.InformeListResponse{
		Total:      total,
		Page:       page,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		Data:       data,
	})
}

// GetByID returns one stored report.
func (h *InformesHandler) GetByID(c *gin.Context) {
	informe, err := h.db.InformeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Mensaje: "Informe no encontrado"})
			return
		}
		h.log.Error("informe lookup failed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error consultando el informe"})
		return
	}
	c.JSON(http.StatusOK, informe)
}

// UltimoPorSesion returns the most recent report generated for a session.
func (h *InformesHandler) UltimoPorSesion(c *gin.Context) {
	sesionID := c.Query("sesionId")
	informe, err := h.db.UltimoInformePorSesion(c.Request.Context(), sesionID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Mensaje: "Informe no encontrado"})
			return
		}
		h.log.Error("último informe lookup failed", zap.String("sesionId", sesionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error consultando el informe"})
		return
	}
	c.JSON(http.StatusOK, models.InformeItem{Informe: *informe, ShareURL: h.shareURL(*informe)})
}

func actorFrom(c *gin.Context) services.Actor {
	p, _ := middleware.GetPrincipal(c)
	return services.Actor{UserID: p.UserID, IsAdmin: p.IsAdmin}
}

// Delete removes one report, remote object first.
func (h *InformesHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	cloudResult, err := h.informes.Delete(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Mensaje: "Informe no encontrado"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Mensaje: "Acceso denegado"})
		default:
			h.log.Error("informe delete failed", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error eliminando el informe"})
		}
		return
	}
	c.JSON(http.StatusOK, models.DeleteInformeResponse{
		OK:          true,
		Mensaje:     "Informe eliminado",
		CloudResult: cloudResult,
	})
}

// BulkDelete removes a batch of reports concurrently and reports per-id
// outcomes.
func (h *InformesHandler) BulkDelete(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Faltan ids"})
		return
	}
	c.JSON(http.StatusOK, h.informes.BulkDelete(c.Request.Context(), req.IDs, actorFrom(c)))
}
