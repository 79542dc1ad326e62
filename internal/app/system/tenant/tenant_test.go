package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	userstore "github.com/dalemusser/lightspeed/internal/app/store/users"
	"github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users map[primitive.ObjectID]models.User
	err   error
}

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return &u, nil
}

func TestMiddleware(t *testing.T) {
	user := models.User{ID: primitive.NewObjectID(), TenantID: primitive.NewObjectID()}
	users := fakeUsers{users: map[primitive.ObjectID]models.User{user.ID: user}}

	tests := []struct {
		name     string
		subject  string
		users    fakeUsers
		wantCode int
	}{
		{"known caller", user.ID.Hex(), users, http.StatusOK},
		{"no identity", "", users, http.StatusUnauthorized},
		{"subject not an object id", "abc", users, http.StatusUnauthorized},
		{"caller deleted", primitive.NewObjectID().Hex(), users, http.StatusNotFound},
		{"store failure", user.ID.Hex(), fakeUsers{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Info
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = FromRequest(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/post", nil)
			if tt.subject != "" {
				req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: tt.subject}))
			}
			rec := httptest.NewRecorder()
			Middleware(tt.users, zap.NewNop())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				if got != nil {
					t.Error("next handler should not run")
				}
				return
			}
			if got == nil || got.TenantID != user.TenantID || got.UserID != user.ID {
				t.Errorf("info = %+v, want tenant %s", got, user.TenantID.Hex())
			}
		})
	}
}

func TestIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := IDFromRequest(req); id != primitive.NilObjectID {
		t.Errorf("expected NilObjectID without context, got %s", id.Hex())
	}

	tid := primitive.NewObjectID()
	req = req.WithContext(WithInfo(req.Context(), &Info{TenantID: tid}))
	if id := IDFromRequest(req); id != tid {
		t.Errorf("IDFromRequest = %s, want %s", id.Hex(), tid.Hex())
	}
}
