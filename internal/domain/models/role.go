// internal/domain/models/role.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role names seeded at startup.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Role is a named authorization label. Roles are seeded, never created by signup.
type Role struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name string             `bson:"name" json:"name"`
}
