// internal/app/features/auth/handler.go
package auth

import (
	"errors"
	"net/http"

	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	bearer "github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Response messages.
const (
	msgBadRequest   = "Bad Request"
	msgConflict     = "Conflict"
	msgNotFound     = "Not Found"
	msgUnauthorized = "Unauthorized"
)

type Handler struct {
	Service *Service
	Audit   *auditlog.Logger // optional
	Log     *zap.Logger
}

func NewHandler(svc *Service, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Audit: auditLog, Log: logger}
}

// HandleRegister creates an account.
// POST /auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in SignUpInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	u, err := h.Service.SignUp(ctx, in)
	switch {
	case err == nil:
		h.Audit.SignUp(ctx, r, u)
		respond.JSON(w, http.StatusCreated, u)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(w, http.StatusConflict, msgConflict)
	default:
		h.badRequest(w, "signup failed", err)
	}
}

// HandleLogin exchanges credentials for a token.
// POST /auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in SignInInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	u, err := h.Service.SignIn(ctx, in)
	switch {
	case err == nil:
		method := "password"
		if in.UseSocialLogin && in.Password == "" {
			method = "social"
		}
		h.Audit.LoginSuccess(ctx, r, u, method)
		respond.JSON(w, http.StatusOK, u)
	case errors.Is(err, ErrInvalidCredentials):
		h.Audit.LoginFailedWrongPassword(ctx, r, in.Email)
		respond.Error(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, ErrUserNotFound):
		h.Audit.LoginFailedUserNotFound(ctx, r, in.Email)
		// Login reports an unknown account as 400, unlike recovery and reset.
		respond.Error(w, http.StatusBadRequest, msgNotFound)
	default:
		h.badRequest(w, "signin failed", err)
	}
}

// HandleAccountRecovery emails a reset link. The body is a bare boolean.
// POST /auth/account-recovery
func (h *Handler) HandleAccountRecovery(w http.ResponseWriter, r *http.Request) {
	var in RecoveryInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	sent, err := h.Service.SendAccountRecoveryLink(ctx, in)
	switch {
	case err == nil:
		h.Audit.RecoveryRequested(ctx, r, in.Email, true, sent)
		respond.JSON(w, http.StatusOK, sent)
	case errors.Is(err, ErrUserNotFound):
		h.Audit.RecoveryRequested(ctx, r, in.Email, false, false)
		respond.Error(w, http.StatusNotFound, msgNotFound)
	default:
		h.badRequest(w, "account recovery failed", err)
	}
}

// HandleResetPassword stores a new password. Requires a bearer token.
// PUT /auth/reset-password
func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in ResetInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	callerID := bearer.UserID(r.Context())
	u, err := h.Service.UpdatePassword(ctx, callerID, in)
	switch {
	case err == nil:
		actor, _ := primitive.ObjectIDFromHex(callerID)
		h.Audit.PasswordReset(ctx, r, actor, u)
		respond.JSON(w, http.StatusOK, u)
	case errors.Is(err, ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, msgNotFound)
	default:
		h.badRequest(w, "password reset failed", err)
	}
}

// badRequest answers 400. Validation messages and the service's own sentinel
// errors are passed through; driver and other errors are logged and replaced
// with a generic message.
func (h *Handler) badRequest(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRoleMissing):
		h.Log.Error(what, zap.Error(err))
		respond.Error(w, http.StatusBadRequest, ErrRoleMissing.Error())
	default:
		h.Log.Error(what, zap.Error(err))
		respond.Error(w, http.StatusBadRequest, msgBadRequest)
	}
}
