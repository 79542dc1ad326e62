// internal/app/features/auth/payloads.go
package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordLen = 72

// SignUpInput is the POST /auth/register body.
type SignUpInput struct {
	FullName       string `json:"fullname"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	AgreeWithTerms bool   `json:"agreeWithTerms"`
	OriginURL      string `json:"originUrl"`
}

// Validate will validate the payload
func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(6, maxPasswordLen)),
		validation.Field(&in.OriginURL, is.URL),
	)
}

// SignInInput is the POST /auth/login body. Password may be omitted only
// when UseSocialLogin is set.
type SignInInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	RememberBe     bool   `json:"rememberBe"`
	UseSocialLogin bool   `json:"useSocialLogin"`
}

// Validate will validate the payload
func (in SignInInput) Validate() error {
	pw := []validation.Rule{validation.Length(0, maxPasswordLen)}
	if !in.UseSocialLogin {
		pw = append([]validation.Rule{validation.Required}, pw...)
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, pw...),
	)
}

// RecoveryInput is the POST /auth/account-recovery body.
type RecoveryInput struct {
	Email     string `json:"email"`
	OriginURL string `json:"originUrl"`
}

// Validate will validate the payload
func (in RecoveryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.OriginURL, is.URL),
	)
}

// ResetInput is the PUT /auth/reset-password body. Password is the new one.
type ResetInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (in ResetInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(6, maxPasswordLen)),
	)
}
