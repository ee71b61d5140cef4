package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldreport-backend/internal/models"
)

func (c *Client) InsertEvidencia(ctx context.Context, ev *models.Evidencia) error {
	_, err := c.col(colImagenes).InsertOne(ctx, ev)
	if err != nil {
		return fmt.Errorf("insert evidencia: %w", err)
	}
	return nil
}

// EvidenciasPorSesion returns the session's evidence ordered by upload time.
func (c *Client) EvidenciasPorSesion(ctx context.Context, sesionID string) ([]models.Evidencia, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fechaSubida", Value: 1}})
	cur, err := c.col(colImagenes).Find(ctx, bson.M{"sesionId": sesionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find evidencias: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Evidencia
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode evidencias: %w", err)
	}
	return out, nil
}

// DeleteEvidenciasPorSesion removes every evidence row of a session and
// returns the deleted count.
func (c *Client) DeleteEvidenciasPorSesion(ctx context.Context, sesionID string) (int64, error) {
	res, err := c.col(colImagenes).DeleteMany(ctx, bson.M{"sesionId": sesionID})
	if err != nil {
		return 0, fmt.Errorf("delete evidencias: %w", err)
	}
	return res.DeletedCount, nil
}

// EvidenciaPublicIDs lists every stored evidence object path, for the
// reconciliation job.
func (c *Client) EvidenciaPublicIDs(ctx context.Context) (map[string]struct{}, error) {
	vals, err := c.col(colImagenes).Distinct(ctx, "publicId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct evidencia publicId: %w", err)
	}
	return toStringSet(vals), nil
}

func toStringSet(vals []interface{}) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}
