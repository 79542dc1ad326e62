// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a blog-style entry scoped to a tenant.
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Content     string             `bson:"content" json:"content"` // sanitized HTML
	URL         string             `bson:"url" json:"url"`
	State       string             `bson:"state" json:"state"`
	Tags        []string           `bson:"tags" json:"tags"`
	Comments    []string           `bson:"comments" json:"comments"`
	AuthorID    primitive.ObjectID `bson:"author" json:"author"`
	TenantID    primitive.ObjectID `bson:"tenant" json:"tenant"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
