package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldreport-backend/internal/models"
)

// TiendaFilter narrows the store listing; empty fields are ignored.
type TiendaFilter struct {
	Regional     string
	Ciudad       string
	Departamento string
}

func (f TiendaFilter) query() bson.M {
	q := bson.M{}
	if f.Regional != "" {
		q["regional"] = f.Regional
	}
	if f.Ciudad != "" {
		q["ciudad"] = f.Ciudad
	}
	if f.Departamento != "" {
		q["departamento"] = f.Departamento
	}
	return q
}

func (c *Client) TiendaByID(ctx context.Context, id string) (*models.Tienda, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var t models.Tienda
	err = c.col(colTiendas).FindOne(ctx, bson.M{"_id": oid}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tienda: %w", err)
	}
	return &t, nil
}

func (c *Client) ListTiendas(ctx context.Context, f TiendaFilter) ([]models.Tienda, error) {
	opts := options.Find().SetSort(bson.D{{Key: "nombre", Value: 1}})
	cur, err := c.col(colTiendas).Find(ctx, f.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("find tiendas: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Tienda
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tiendas: %w", err)
	}
	return out, nil
}

func (c *Client) DistinctTienda(ctx context.Context, field string, f TiendaFilter) ([]string, error) {
	vals, err := c.col(colTiendas).Distinct(ctx, field, f.query())
	if err != nil {
		return nil, fmt.Errorf("distinct tiendas %s: %w", field, err)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// UpsertTienda inserts a store keyed by (nombre, ciudad), updating the rest
// of the record when force is set. Used by cmd/storeimport.
func (c *Client) UpsertTienda(ctx context.Context, t models.Tienda, force bool) (created bool, err error) {
	filter := bson.M{"nombre": t.Nombre, "ciudad": t.Ciudad}
	update := bson.M{"$setOnInsert": bson.M{
		"nombre":       t.Nombre,
		"regional":     t.Regional,
		"departamento": t.Departamento,
		"ciudad":       t.Ciudad,
	}}
	if force {
		update = bson.M{"$set": bson.M{
			"nombre":       t.Nombre,
			"regional":     t.Regional,
			"departamento": t.Departamento,
			"ciudad":       t.Ciudad,
		}}
	}
	res, err := c.col(colTiendas).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert tienda: %w", err)
	}
	return res.UpsertedCount > 0, nil
}
