// internal/domain/models/product.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry scoped to a tenant.
type Product struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64             `bson:"price" json:"price"`
	Status      string              `bson:"status" json:"status"`
	Files       []File              `bson:"files" json:"files"`
	TaxID       *primitive.ObjectID `bson:"tax,omitempty" json:"tax,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	TenantID    primitive.ObjectID  `bson:"tenant" json:"tenant"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// File is an uploaded attachment embedded in a product.
type File struct {
	Filename  string    `bson:"filename" json:"filename"`
	Extension string    `bson:"extension" json:"extension"`
	URL       string    `bson:"url" json:"url"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
