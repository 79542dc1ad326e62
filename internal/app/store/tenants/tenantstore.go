// internal/app/store/tenants/tenantstore.go
package tenantstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no tenant has the requested id.
var ErrNotFound = errors.New("tenant not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tenants")}
}

// Create inserts an empty tenant. Signup creates exactly one per new account.
func (s *Store) Create(ctx context.Context) (models.Tenant, error) {
	t := models.Tenant{
		ID:        primitive.NewObjectID(),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Tenant{}, err
	}
	return t, nil
}

// GetByID loads a tenant.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Tenant, error) {
	var t models.Tenant
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Count returns the number of tenants.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
