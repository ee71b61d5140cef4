package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldreport-backend/internal/models"
)

// PrincipalKey is the gin context key holding the resolved Principal.
const PrincipalKey = "principal"

// Principal is the acting identity resolved from a session token. Every
// protected handler reads this instead of re-checking sessions itself.
type Principal struct {
	UserID   string
	Usuario  string
	SesionID string
	IsAdmin  bool
}

// SessionResolver resolves session tokens against the database.
type SessionResolver interface {
	SesionPorID(ctx context.Context, sesionID string) (*models.Sesion, error)
	UsuarioByID(ctx context.Context, id primitive.ObjectID) (*models.Usuario, error)
}

// SesionID extracts the session token from the request: ?sesionId or the
// X-Sesion-Id header.
func SesionID(c *gin.Context) string {
	if v := c.Query("sesionId"); v != "" {
		return v
	}
	return c.GetHeader("X-Sesion-Id")
}

// GetPrincipal returns the Principal a Require* middleware stored.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// Resolve turns a session token into a Principal. The admin flag is the
// persisted session flag, or a fallback match on the literal "admin"
// login.
func Resolve(ctx context.Context, r SessionResolver, sesionID string) (Principal, error) {
	ses, err := r.SesionPorID(ctx, sesionID)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{
		UserID:   ses.UsuarioID.Hex(),
		SesionID: ses.SesionID,
		IsAdmin:  ses.IsAdmin,
	}
	if user, err := r.UsuarioByID(ctx, ses.UsuarioID); err == nil {
		p.Usuario = user.Usuario
		if user.Usuario == models.AdminUsuario {
			p.IsAdmin = true
		}
	}
	return p, nil
}

// RequireSession admits any caller with a resolvable session token. The
// handler behind it decides ownership.
func RequireSession(r SessionResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sesionID := SesionID(c)
		if sesionID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.ErrorResponse{Mensaje: "Acceso denegado (falta sesionId)"})
			return
		}
		p, err := Resolve(c.Request.Context(), r, sesionID)
		if err != nil {
			log.Debug("authorization lookup failed", zap.String("sesionId", sesionID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Mensaje: "Acceso denegado"})
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// RequireAdmin admits only admin principals.
func RequireAdmin(r SessionResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sesionID := SesionID(c)
		if sesionID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.ErrorResponse{Mensaje: "Solo admin (falta sesionId)"})
			return
		}
		p, err := Resolve(c.Request.Context(), r, sesionID)
		if err != nil || !p.IsAdmin {
			if err != nil {
				log.Debug("authorization lookup failed", zap.String("sesionId", sesionID), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Mensaje: "Solo admin"})
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// RequireSelfOrAdmin admits admins and the owner of the session named in
// the query parameter.
func RequireSelfOrAdmin(r SessionResolver, param string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sesionID := SesionID(c)
		if sesionID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden,
				models.ErrorResponse{Mensaje: "Acceso denegado (falta sesionId)"})
			return
		}
		p, err := Resolve(c.Request.Context(), r, sesionID)
		if err != nil {
			log.Debug("authorization lookup failed", zap.String("sesionId", sesionID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Mensaje: "Acceso denegado"})
			return
		}
		target := c.Query(param)
		if !p.IsAdmin && (target == "" || target != p.SesionID) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{Mensaje: "Acceso denegado"})
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}
