package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/models"
)

type TiendasHandler struct {
	db  *database.Client
	log *zap.Logger
}

func NewTiendasHandler(db *database.Client, log *zap.Logger) *TiendasHandler {
	return &TiendasHandler{db: db, log: log}
}

func tiendaFilter(c *gin.Context) database.TiendaFilter {
	return database.TiendaFilter{
		Regional:     c.Query("regional"),
		Ciudad:       c.Query("ciudad"),
		Departamento: c.Query("departamento"),
	}
}

// List returns the store directory, optionally narrowed by regional,
// ciudad and departamento.
func (h *TiendasHandler) List(c *gin.Context) {
	tiendas, err := h.db.ListTiendas(c.Request.Context(), tiendaFilter(c))
	if err != nil {
		h.log.Error("tiendas list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error consultando tiendas"})
		return
	}
	c.JSON(http.StatusOK, tiendas)
}

// Regionales, Ciudades and Departamentos feed the client's cascading
// dropdowns.
func (h *TiendasHandler) Regionales(c *gin.Context) {
	h.distinct(c, "regional")
}

func (h *TiendasHandler) Ciudades(c *gin.Context) {
	h.distinct(c, "ciudad")
}

func (h *TiendasHandler) Departamentos(c *gin.Context) {
	h.distinct(c, "departamento")
}

func (h *TiendasHandler) distinct(c *gin.Context, field string) {
	values, err := h.db.DistinctTienda(c.Request.Context(), field, tiendaFilter(c))
	if err != nil {
		h.log.Error("tiendas distinct failed", zap.String("field", field), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error consultando tiendas"})
		return
	}
	c.JSON(http.StatusOK, values)
}
