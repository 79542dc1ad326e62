package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/app/system/tokens"
	"go.uber.org/zap"
)

func newAuthenticator() (*auth.Authenticator, *tokens.Issuer) {
	iss := tokens.NewIssuer("test-secret", "")
	return auth.NewAuthenticator(iss, zap.NewNop()), iss
}

func TestRequire_NoHeader_Returns401(t *testing.T) {
	a, _ := newAuthenticator()

	called := false
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/post", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("handler must not run without a token")
	}
	if rec.Body.String() != `{"message":"Unauthorized"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRequire_ExpiredToken_Returns401(t *testing.T) {
	a, iss := newAuthenticator()
	tok, err := iss.Issue("u1", "a@b.co", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	called := false
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/post", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("handler must not run with an expired token")
	}
}

func TestRequire_ValidToken_InjectsIdentity(t *testing.T) {
	a, iss := newAuthenticator()
	tok, err := iss.Issue("65f0c0ffee", "ada@example.com", tokens.OneDay)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotID string
	var gotEmail string
	h := a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.UserID(r.Context())
		id, _ := auth.CurrentIdentity(r.Context())
		gotEmail = id.Email
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/post", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID != "65f0c0ffee" {
		t.Errorf("user id = %q", gotID)
	}
	if gotEmail != "ada@example.com" {
		t.Errorf("email = %q", gotEmail)
	}
}

func TestVerify_HeaderForms(t *testing.T) {
	a, iss := newAuthenticator()
	tok, _ := iss.Issue("u1", "a@b.co", tokens.OneDay)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"empty", "", auth.ErrMissingToken},
		{"no scheme", tok, auth.ErrMissingToken},
		{"basic scheme", "Basic " + tok, auth.ErrMissingToken},
		{"bearer no token", "Bearer ", auth.ErrMissingToken},
		{"bearer garbage", "Bearer abc.def.ghi", auth.ErrInvalidToken},
		{"bearer valid", "Bearer " + tok, nil},
		{"lowercase scheme", "bearer " + tok, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Verify(tt.header)
			if err != tt.wantErr {
				t.Errorf("Verify(%q) err = %v, want %v", tt.header, err, tt.wantErr)
			}
		})
	}
}

func TestUserID_OutsideProtectedRoute(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := auth.UserID(req.Context()); got != "" {
		t.Errorf("UserID = %q, want empty", got)
	}
}
