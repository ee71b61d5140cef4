package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/models"
)

type AuthHandler struct {
	db  *database.Client
	log *zap.Logger
}

func NewAuthHandler(db *database.Client, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, log: log}
}

// Login verifies the shared credentials and mints an opaque session token.
// The token is persisted so admin checks survive restarts.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Usuario == "" || req.Contrasena == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Mensaje: "Faltan usuario o contraseña"})
		return
	}

	user, err := h.db.UsuarioPorLogin(c.Request.Context(), req.Usuario)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Mensaje: "Usuario no encontrado"})
			return
		}
		h.log.Error("login lookup failed", zap.String("usuario", req.Usuario), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error en el servidor"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Contrasena), []byte(req.Contrasena)); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Mensaje: "Credenciales incorrectas"})
		return
	}

	// The session token is the login name itself: re-login for the same
	// identity overwrites the previous record instead of stacking sessions.
	isAdmin := user.Usuario == models.AdminUsuario
	if err := h.db.UpsertSesion(c.Request.Context(), user.Usuario, user.ID, isAdmin); err != nil {
		h.log.Error("session persist failed", zap.String("usuario", req.Usuario), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Mensaje: "Error en el servidor"})
		return
	}

	h.log.Info("login", zap.String("usuario", user.Usuario), zap.Bool("isAdmin", isAdmin))
	c.JSON(http.StatusOK, models.LoginResponse{
		Mensaje: "Acceso concedido",
		Nombre:  user.Nombre,
		UserID:  user.ID.Hex(),
		IsAdmin: isAdmin,
	})
}
