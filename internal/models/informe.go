package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Informe is the persisted metadata of one generated report PDF.
type Informe struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title    string             `bson:"title" json:"title"`
	SesionID string             `bson:"sesionId,omitempty" json:"sesionId,omitempty"`

	GeneratedBy *primitive.ObjectID `bson:"generatedBy,omitempty" json:"generatedBy,omitempty"`

	URL string `bson:"url" json:"url"`
	// PublicID is the storage object path. Once set it is the sole handle
	// for later deletion; losing it orphans the remote object.
	PublicID string `bson:"publicId,omitempty" json:"publicId,omitempty"`

	MimeType     string `bson:"mimeType" json:"mimeType"`
	IncludesActa bool   `bson:"includesActa" json:"includesActa"`

	NumeroIncidencia string `bson:"numeroIncidencia,omitempty" json:"numeroIncidencia,omitempty"`
	Regional         string `bson:"regional,omitempty" json:"regional,omitempty"`
	Ubicacion        string `bson:"ubicacion,omitempty" json:"ubicacion,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
