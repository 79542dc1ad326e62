// internal/app/store/posts/poststore.go
package poststore

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

var (
	// ErrNotFound is returned when no post with the id exists in the tenant.
	ErrNotFound = errors.New("post not found")

	errNoTenant = errors.New("post must reference a tenant")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_posts_tenant_created"),
	})
	return err
}

// Count returns how many posts match q's filter.
func (s *Store) Count(ctx context.Context, q paging.Query) (int64, error) {
	n, err := s.c.CountDocuments(ctx, q.Filter())
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// List returns one page of posts matching q's filter.
func (s *Store) List(ctx context.Context, q paging.Query) ([]models.Post, error) {
	cur, err := s.c.Find(ctx, q.Filter(), q.FindOptions())
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Post, 0, q.Size)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return out, nil
}

// GetByID loads a post within tenantID.
func (s *Store) GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "tenant": tenantID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p. Nil slices are stored as empty arrays.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	if p.TenantID.IsZero() {
		return models.Post{}, errNoTenant
	}
	p.ID = primitive.NewObjectID()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []string{}
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = nil

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// Update is a partial update; nil fields are left unchanged.
type Update struct {
	Name        *string
	Description *string
	Content     *string
	URL         *string
	State       *string
	Tags        []string
	Comments    []string
}

func (u Update) set(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Content != nil {
		set["content"] = *u.Content
	}
	if u.URL != nil {
		set["url"] = *u.URL
	}
	if u.State != nil {
		set["state"] = *u.State
	}
	if u.Tags != nil {
		set["tags"] = u.Tags
	}
	if u.Comments != nil {
		set["comments"] = u.Comments
	}
	return set
}

// Update applies upd to the post within tenantID and returns the result.
func (s *Store) Update(ctx context.Context, tenantID, id primitive.ObjectID, upd Update) (*models.Post, error) {
	var p models.Post
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "tenant": tenantID},
		bson.M{"$set": upd.set(time.Now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the post within tenantID and returns what was removed.
func (s *Store) Delete(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "tenant": tenantID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
