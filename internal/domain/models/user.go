// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that belongs to exactly one tenant and holds exactly one role.
//
// Token is minted per sign-in and returned to the caller; it is never persisted.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FullName       string             `bson:"fullname" json:"fullname"`
	Email          string             `bson:"email" json:"email"` // folded to lower case
	Password       string             `bson:"password" json:"-"`  // bcrypt hash
	VerifiedEmail  bool               `bson:"verifiedEmail" json:"verifiedEmail"`
	AgreeWithTerms bool               `bson:"agreeWithTerms" json:"agreeWithTerms"`
	UseSocialLogin bool               `bson:"useSocialLogin" json:"useSocialLogin"`
	RememberBe     bool               `bson:"rememberBe" json:"rememberBe"`
	ChangePassword bool               `bson:"changePassword" json:"changePassword"`
	RoleID         primitive.ObjectID `bson:"role" json:"role"`
	TenantID       primitive.ObjectID `bson:"tenant" json:"tenant"`

	Token string `bson:"-" json:"token,omitempty"`

	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
