// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/system/normalize"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")

	errNoTenant = errors.New("user must reference a tenant")
	errNoRole   = errors.New("user must reference a role")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. It backs the existence check
// in signup: two concurrent signups for one address cannot both insert.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "tenant", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_users_tenant_created"),
		},
	})
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether any user holds email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	err := s.c.FindOne(ctx,
		bson.M{"email": normalize.Email(email)},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new user after normalizing fields. Password must already
// be hashed.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.TenantID.IsZero() {
		return models.User{}, errNoTenant
	}
	if u.RoleID.IsZero() {
		return models.User{}, errNoRole
	}

	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Token = ""
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = nil

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpdatePassword replaces the stored hash for the user with the given email
// and clears the change-password flag. It returns the updated user.
func (s *Store) UpdatePassword(ctx context.Context, email, hash string) (*models.User, error) {
	now := time.Now().UTC()
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{
			"password":       hash,
			"changePassword": false,
			"updatedAt":      now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MarkVerified sets verifiedEmail once a provider has vouched for the address.
func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"verifiedEmail": true, "updatedAt": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
