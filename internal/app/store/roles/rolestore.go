// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"

	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the named role has not been seeded.
var ErrNotFound = errors.New("role not found")

// Defaults are the roles seeded at startup.
var Defaults = []string{models.RoleAdmin, models.RoleUser}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_roles_name"),
	})
	return err
}

// GetByName loads the role with the exact name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Seed upserts each name so repeated startups leave one document per role.
// It returns how many roles were newly inserted.
func (s *Store) Seed(ctx context.Context, names ...string) (int, error) {
	inserted := 0
	for _, name := range names {
		res, err := s.c.UpdateOne(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "name": name}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return inserted, err
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// List returns all roles ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Role, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
