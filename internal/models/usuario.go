package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Usuario is a technician account. Usuario is a national ID string or the
// literal "admin"; accounts are created by cmd/useradd, never over HTTP.
type Usuario struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Usuario    string             `bson:"usuario" json:"usuario"`
	Contrasena string             `bson:"contraseña" json:"-"` // bcrypt hash
	Nombre     string             `bson:"nombre,omitempty" json:"nombre,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt  time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Sesion maps an opaque session token (the login identity itself) to a
// user. Re-login upserts; there is no expiry.
type Sesion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SesionID    string             `bson:"sesionId" json:"sesionId"`
	UsuarioID   primitive.ObjectID `bson:"usuarioId" json:"usuarioId"`
	IsAdmin     bool               `bson:"isAdmin" json:"isAdmin"`
	FechaInicio time.Time          `bson:"fechaInicio" json:"fechaInicio"`
}

// AdminUsuario is the login name that always carries admin rights.
const AdminUsuario = "admin"
