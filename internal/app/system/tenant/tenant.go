// internal/app/system/tenant/tenant.go
// Package tenant resolves the caller's tenant for protected routes.
package tenant

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/lightspeed/internal/app/store/users"
	"github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ctxKey string

const tenantKey ctxKey = "tenant"

// Info holds tenant context for the current request.
type Info struct {
	TenantID primitive.ObjectID
	UserID   primitive.ObjectID
	RoleID   primitive.ObjectID
}

// UserLookup loads the authenticated caller. *userstore.Store implements it.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Middleware loads the caller named by the bearer token and stores its tenant
// in the request context. It must run after auth.Authenticator.Require.
//
// A token whose subject no longer exists gets 404; the tenant is always taken
// from the stored user, never from the request.
func Middleware(users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := primitive.ObjectIDFromHex(auth.UserID(r.Context()))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx, cancel := timeouts.WithShort(r.Context())
			defer cancel()

			u, err := users.GetByID(ctx, uid)
			if errors.Is(err, userstore.ErrNotFound) {
				logger.Info("token subject no longer exists", zap.String("user_id", uid.Hex()))
				respond.Error(w, http.StatusNotFound, "Not Found")
				return
			}
			if err != nil {
				logger.Error("load caller failed", zap.String("user_id", uid.Hex()), zap.Error(err))
				respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			info := &Info{TenantID: u.TenantID, UserID: u.ID, RoleID: u.RoleID}
			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, tenantKey, info)
}

// FromContext returns the tenant info from the context.
// Returns nil if no tenant context is set.
func FromContext(ctx context.Context) *Info {
	if info, ok := ctx.Value(tenantKey).(*Info); ok {
		return info
	}
	return nil
}

// FromRequest returns the tenant info from the request context.
func FromRequest(r *http.Request) *Info {
	return FromContext(r.Context())
}

// IDFromRequest returns the tenant ID, or primitive.NilObjectID outside a
// tenant-scoped route.
func IDFromRequest(r *http.Request) primitive.ObjectID {
	if info := FromRequest(r); info != nil {
		return info.TenantID
	}
	return primitive.NilObjectID
}
