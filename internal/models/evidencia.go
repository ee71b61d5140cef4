package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Evidencia is one uploaded before/after installation photo.
// The bson field names are the wire contract the mobile client ships with.
type Evidencia struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// NombreOriginal is the normalized base name of the uploaded file
	// (lower-cased, whitespace collapsed to underscores), kept so clients
	// can verify pairing order.
	NombreOriginal        string `bson:"nombreOriginal" json:"nombreOriginal"`
	NombreArchivoOriginal string `bson:"nombreArchivoOriginal" json:"nombreArchivoOriginal"`

	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId,omitempty" json:"publicId,omitempty"`

	SesionID    string `bson:"sesionId" json:"sesionId"`
	Tipo        string `bson:"tipo" json:"tipo"` // "previa" | "posterior"
	Ubicacion   string `bson:"ubicacion,omitempty" json:"ubicacion,omitempty"`
	Observacion string `bson:"observacion,omitempty" json:"observacion,omitempty"`

	FechaSubida time.Time `bson:"fechaSubida" json:"fechaSubida"`
}

const (
	TipoPrevia    = "previa"
	TipoPosterior = "posterior"
)
