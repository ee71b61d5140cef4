package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/middleware"
	"fieldreport-backend/internal/models"
)

type fakeResolver struct {
	sesiones map[string]*models.Sesion
	usuarios map[primitive.ObjectID]*models.Usuario
}

func (f *fakeResolver) SesionPorID(_ context.Context, sesionID string) (*models.Sesion, error) {
	if s, ok := f.sesiones[sesionID]; ok {
		return s, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeResolver) UsuarioByID(_ context.Context, id primitive.ObjectID) (*models.Usuario, error) {
	if u, ok := f.usuarios[id]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func newFakeResolver() *fakeResolver {
	adminID := primitive.NewObjectID()
	techID := primitive.NewObjectID()
	legacyID := primitive.NewObjectID()
	return &fakeResolver{
		sesiones: map[string]*models.Sesion{
			"admin":    {SesionID: "admin", UsuarioID: adminID, IsAdmin: true},
			"79965598": {SesionID: "79965598", UsuarioID: techID},
			// Persisted before the isAdmin flag existed; only the login
			// name marks it.
			"legacy": {SesionID: "legacy", UsuarioID: legacyID},
		},
		usuarios: map[primitive.ObjectID]*models.Usuario{
			adminID:  {ID: adminID, Usuario: "admin", Nombre: "Administrador"},
			techID:   {ID: techID, Usuario: "79965598", Nombre: "John Vergara"},
			legacyID: {ID: legacyID, Usuario: "admin"},
		},
	}
}

func adminRouter(r middleware.SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protegido", middleware.RequireAdmin(r, zap.NewNop()), func(c *gin.Context) {
		p, _ := middleware.GetPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"usuario": p.Usuario})
	})
	return router
}

func TestRequireAdmin_MissingSesionID(t *testing.T) {
	router := adminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/protegido", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "falta sesionId")
}

func TestRequireAdmin_UnknownSesion(t *testing.T) {
	router := adminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/protegido?sesionId=nadie", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_NonAdmin(t *testing.T) {
	router := adminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/protegido?sesionId=79965598", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_AdminByFlag(t *testing.T) {
	router := adminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/protegido?sesionId=admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_AdminByLoginFallback(t *testing.T) {
	router := adminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/protegido?sesionId=legacy", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin_HeaderToken(t *testing.T) {
	router := adminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/protegido", nil)
	req.Header.Set("X-Sesion-Id", "admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func selfOrAdminRouter(r middleware.SessionResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ultimo",
		middleware.RequireSelfOrAdmin(r, "sesionId", zap.NewNop()),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	return router
}

func TestRequireSelfOrAdmin_Owner(t *testing.T) {
	router := selfOrAdminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/ultimo?sesionId=79965598", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSelfOrAdmin_UnknownSesion(t *testing.T) {
	router := selfOrAdminRouter(newFakeResolver())

	req, _ := http.NewRequest("GET", "/ultimo?sesionId=otronumero", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireSelfOrAdmin_AdminOverridesOwnership(t *testing.T) {
	router := selfOrAdminRouter(newFakeResolver())

	// Admin token in the header querying another technician's session.
	req, _ := http.NewRequest("GET", "/ultimo", nil)
	req.Header.Set("X-Sesion-Id", "admin")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSession_ResolvesPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/recurso",
		middleware.RequireSession(newFakeResolver(), zap.NewNop()),
		func(c *gin.Context) {
			p, _ := middleware.GetPrincipal(c)
			c.JSON(http.StatusOK, gin.H{"isAdmin": p.IsAdmin})
		})

	req, _ := http.NewRequest("DELETE", "/recurso?sesionId=79965598", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest("DELETE", "/recurso", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
