package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Tienda is one store-directory record (regional → city → department
// hierarchy). Populated offline by cmd/storeimport; read-only at request
// time.
type Tienda struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Nombre       string             `bson:"nombre" json:"nombre"`
	Regional     string             `bson:"regional,omitempty" json:"regional,omitempty"`
	Departamento string             `bson:"departamento" json:"departamento"`
	Ciudad       string             `bson:"ciudad" json:"ciudad"`
}
