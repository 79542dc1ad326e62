package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/lightspeed/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateTenant inserts an empty tenant.
func (f *Fixtures) CreateTenant(ctx context.Context) models.Tenant {
	f.t.Helper()

	tn := models.Tenant{ID: primitive.NewObjectID(), CreatedAt: time.Now().UTC()}
	if _, err := f.db.Collection("tenants").InsertOne(ctx, tn); err != nil {
		f.t.Fatalf("failed to create test tenant: %v", err)
	}
	return tn
}

// EnsureRole returns the role with name, inserting it if needed.
func (f *Fixtures) EnsureRole(ctx context.Context, name string) models.Role {
	f.t.Helper()

	var r models.Role
	err := f.db.Collection("roles").FindOne(ctx, bson.M{"name": name}).Decode(&r)
	if err == nil {
		return r
	}
	if err != mongo.ErrNoDocuments {
		f.t.Fatalf("failed to look up role %q: %v", name, err)
	}

	r = models.Role{ID: primitive.NewObjectID(), Name: name}
	if _, err := f.db.Collection("roles").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create role %q: %v", name, err)
	}
	return r
}

// CreateUser inserts a user in tenantID with a bcrypt hash of password.
// MinCost keeps the suite fast.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, password string, tenantID, roleID primitive.ObjectID) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	u := models.User{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		Email:          email,
		Password:       string(hash),
		AgreeWithTerms: true,
		RoleID:         roleID,
		TenantID:       tenantID,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates a tenant plus an admin user in it, mirroring signup.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email, password string) (models.User, models.Tenant) {
	f.t.Helper()

	tn := f.CreateTenant(ctx)
	role := f.EnsureRole(ctx, models.RoleAdmin)
	return f.CreateUser(ctx, fullName, email, password, tn.ID, role.ID), tn
}

// CreatePost inserts a post authored by authorID in tenantID.
func (f *Fixtures) CreatePost(ctx context.Context, name, state string, tenantID, authorID primitive.ObjectID) models.Post {
	f.t.Helper()

	p := models.Post{
		ID:        primitive.NewObjectID(),
		Name:      name,
		State:     state,
		Tags:      []string{},
		Comments:  []string{},
		AuthorID:  authorID,
		TenantID:  tenantID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return p
}

// CreateProduct inserts a product in tenantID.
func (f *Fixtures) CreateProduct(ctx context.Context, name, status string, price float64, tenantID, createdBy primitive.ObjectID) models.Product {
	f.t.Helper()

	p := models.Product{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Status:    status,
		Price:     price,
		Files:     []models.File{},
		CreatedBy: createdBy,
		TenantID:  tenantID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("products").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test product: %v", err)
	}
	return p
}
