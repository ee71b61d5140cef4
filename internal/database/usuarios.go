package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldreport-backend/internal/models"
)

func (c *Client) UsuarioPorLogin(ctx context.Context, usuario string) (*models.Usuario, error) {
	var u models.Usuario
	err := c.col(colUsuarios).FindOne(ctx, bson.M{"usuario": usuario}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find usuario: %w", err)
	}
	return &u, nil
}

func (c *Client) UsuarioByID(ctx context.Context, id primitive.ObjectID) (*models.Usuario, error) {
	var u models.Usuario
	err := c.col(colUsuarios).FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find usuario: %w", err)
	}
	return &u, nil
}

// UpsertUsuario creates or updates a provisioned account. Used by
// cmd/useradd only.
func (c *Client) UpsertUsuario(ctx context.Context, usuario, nombre, passwordHash string, resetPassword bool) (created bool, err error) {
	now := time.Now().UTC()
	set := bson.M{"nombre": nombre, "updatedAt": now}
	if resetPassword {
		set["contraseña"] = passwordHash
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"usuario": usuario, "contraseña": passwordHash, "createdAt": now},
	}
	if resetPassword {
		// contraseña cannot appear in both $set and $setOnInsert.
		update["$setOnInsert"] = bson.M{"usuario": usuario, "createdAt": now}
	}

	res, err := c.col(colUsuarios).UpdateOne(ctx, bson.M{"usuario": usuario}, update,
		options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert usuario: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

// UpsertSesion records (or overwrites) the session for a login identity.
func (c *Client) UpsertSesion(ctx context.Context, sesionID string, usuarioID primitive.ObjectID, isAdmin bool) error {
	update := bson.M{
		"$set":         bson.M{"usuarioId": usuarioID, "isAdmin": isAdmin},
		"$setOnInsert": bson.M{"sesionId": sesionID, "fechaInicio": time.Now().UTC()},
	}
	_, err := c.col(colSesiones).UpdateOne(ctx, bson.M{"sesionId": sesionID}, update,
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert sesion: %w", err)
	}
	return nil
}

func (c *Client) SesionPorID(ctx context.Context, sesionID string) (*models.Sesion, error) {
	var s models.Sesion
	err := c.col(colSesiones).FindOne(ctx, bson.M{"sesionId": sesionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sesion: %w", err)
	}
	return &s, nil
}
