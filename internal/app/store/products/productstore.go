// internal/app/store/products/productstore.go
package productstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/system/paging"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errNoTenant = errors.New("product must reference a tenant")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("products")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_products_tenant_created"),
	})
	return err
}

// Count returns how many products match q's filter.
func (s *Store) Count(ctx context.Context, q paging.Query) (int64, error) {
	n, err := s.c.CountDocuments(ctx, q.Filter())
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// List returns one page of products matching q's filter.
func (s *Store) List(ctx context.Context, q paging.Query) ([]models.Product, error) {
	cur, err := s.c.Find(ctx, q.Filter(), q.FindOptions())
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Product, 0, q.Size)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

// Create inserts p with a fresh id and creation time.
func (s *Store) Create(ctx context.Context, p models.Product) (models.Product, error) {
	if p.TenantID.IsZero() {
		return models.Product{}, errNoTenant
	}
	p.ID = primitive.NewObjectID()
	if p.Files == nil {
		p.Files = []models.File{}
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = nil

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}
