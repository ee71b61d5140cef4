// Package database holds the MongoDB connection and the typed queries the
// rest of the application runs against it.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	colImagenes   = "imagenes"
	colInformes   = "informes"
	colSesiones   = "sesiones"
	colUsuarios   = "usuarios"
	colTiendas    = "tiendas"
	colDeadLetter = "cleanup_deadletter"
)

type Client struct {
	mc  *mongo.Client
	db  *mongo.Database
	log *zap.Logger
}

// Connect dials MongoDB, pings it and bootstraps the indexes.
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Client, error) {
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	start := time.Now()
	log.Info("mongo: connecting", zap.String("uri", redactURI(uri)), zap.String("db", dbName))

	mc, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := mc.Ping(dctx, nil); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	c := &Client{mc: mc, db: mc.Database(dbName), log: log}
	if err := c.ensureIndexes(ctx); err != nil {
		log.Warn("mongo: index creation warnings", zap.Error(err))
	}

	log.Info("mongo: connected", zap.Duration("took", time.Since(start).Round(time.Millisecond)))
	return c, nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.mc.Disconnect(ctx)
}

func (c *Client) col(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	specs := []struct {
		col    string
		models []mongo.IndexModel
	}{
		{colImagenes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "sesionId", Value: 1}, {Key: "fechaSubida", Value: 1}}},
		}},
		{colInformes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "generatedBy", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "sesionId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{colSesiones, []mongo.IndexModel{
			{Keys: bson.D{{Key: "sesionId", Value: 1}}, Options: unique},
		}},
		{colUsuarios, []mongo.IndexModel{
			{Keys: bson.D{{Key: "usuario", Value: 1}}, Options: unique},
		}},
		{colTiendas, []mongo.IndexModel{
			{Keys: bson.D{{Key: "nombre", Value: 1}, {Key: "ciudad", Value: 1}}},
			{Keys: bson.D{{Key: "regional", Value: 1}}},
		}},
	}

	var firstErr error
	for _, s := range specs {
		if _, err := c.col(s.col).Indexes().CreateMany(ictx, s.models); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", s.col, err)
		}
	}
	return firstErr
}

func redactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
