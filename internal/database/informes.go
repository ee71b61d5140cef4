package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldreport-backend/internal/models"
)

// ErrNotFound is returned for lookups of documents that do not exist.
var ErrNotFound = errors.New("not found")

// InformeFilter holds the listing filters of GET /informes.
type InformeFilter struct {
	Search     string // case-insensitive substring over title and ubicacion
	UserID     string // exact generatedBy
	Regional   string // exact
	Incidencia string // case-insensitive substring
	From, To   *time.Time
}

// BuildInformeQuery turns an InformeFilter into the Mongo filter document.
func BuildInformeQuery(f InformeFilter) bson.M {
	q := bson.M{}

	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = []bson.M{
			{"title": bson.M{"$regex": re}},
			{"ubicacion": bson.M{"$regex": re}},
		}
	}
	if f.UserID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.UserID); err == nil {
			q["generatedBy"] = oid
		} else {
			q["generatedBy"] = f.UserID
		}
	}
	if f.Regional != "" {
		q["regional"] = f.Regional
	}
	if f.Incidencia != "" {
		q["numeroIncidencia"] = bson.M{
			"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.Incidencia), Options: "i"},
		}
	}
	if f.From != nil || f.To != nil {
		rng := bson.M{}
		if f.From != nil {
			rng["$gte"] = *f.From
		}
		// To is exclusive; callers pass the day after the last included one.
		if f.To != nil {
			rng["$lt"] = *f.To
		}
		q["createdAt"] = rng
	}
	return q
}

func (c *Client) InsertInforme(ctx context.Context, inf *models.Informe) error {
	res, err := c.col(colInformes).InsertOne(ctx, inf)
	if err != nil {
		return fmt.Errorf("insert informe: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		inf.ID = oid
	}
	return nil
}

func (c *Client) InformeByID(ctx context.Context, id string) (*models.Informe, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var inf models.Informe
	err = c.col(colInformes).FindOne(ctx, bson.M{"_id": oid}).Decode(&inf)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find informe: %w", err)
	}
	return &inf, nil
}

// UltimoInformePorSesion returns the most recent report generated for a
// session.
func (c *Client) UltimoInformePorSesion(ctx context.Context, sesionID string) (*models.Informe, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var inf models.Informe
	err := c.col(colInformes).FindOne(ctx, bson.M{"sesionId": sesionID}, opts).Decode(&inf)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ultimo informe: %w", err)
	}
	return &inf, nil
}

func (c *Client) CountInformes(ctx context.Context, f InformeFilter) (int64, error) {
	n, err := c.col(colInformes).CountDocuments(ctx, BuildInformeQuery(f))
	if err != nil {
		return 0, fmt.Errorf("count informes: %w", err)
	}
	return n, nil
}

// ListInformes returns one page sorted by creation time descending.
func (c *Client) ListInformes(ctx context.Context, f InformeFilter, page, limit int) ([]models.Informe, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page-1) * int64(limit)).
		SetLimit(int64(limit))

	cur, err := c.col(colInformes).Find(ctx, BuildInformeQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find informes: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.Informe
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode informes: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteInforme(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.col(colInformes).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete informe: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InformePublicIDs lists every stored report object path, for the
// reconciliation job.
func (c *Client) InformePublicIDs(ctx context.Context) (map[string]struct{}, error) {
	vals, err := c.col(colInformes).Distinct(ctx, "publicId", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct informe publicId: %w", err)
	}
	return toStringSet(vals), nil
}
