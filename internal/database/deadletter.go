package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// InsertDeadLetter records a cleanup task that exhausted its retries so an
// operator (or the reconciler) can pick it up later.
func (c *Client) InsertDeadLetter(ctx context.Context, kind, sesionID, path, reason string) error {
	_, err := c.col(colDeadLetter).InsertOne(ctx, bson.M{
		"kind":      kind,
		"sesionId":  sesionID,
		"path":      path,
		"reason":    reason,
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}
