// internal/app/features/auth/routes.go
package auth

import (
	bearer "github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, authn *bearer.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/account-recovery", h.HandleAccountRecovery)
	r.With(authn.Require).Put("/reset-password", h.HandleResetPassword)
	return r
}
