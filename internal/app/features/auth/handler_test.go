package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	bearer "github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/app/system/tokens"
	"github.com/dalemusser/lightspeed/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newRouter(h *harness) chi.Router {
	handler := NewHandler(h.svc, nil, zap.NewNop())
	return Routes(handler, bearer.NewAuthenticator(h.issuer, zap.NewNop()))
}

func TestHandleRegister(t *testing.T) {
	h := newHarness()
	r := newRouter(h)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", validSignUp())
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var body map[string]any
	rec.DecodeJSON(t, &body)
	if _, ok := body["id"]; !ok {
		t.Error("expected id in response")
	}
	if _, ok := body["_id"]; ok {
		t.Error("_id must not leak into the response")
	}
	if _, ok := body["password"]; ok {
		t.Error("password must not be serialized")
	}
	if tok, _ := body["token"].(string); tok == "" {
		t.Error("expected token in response")
	}
}

func TestHandleRegister_Conflict(t *testing.T) {
	h := newHarness()
	h.users.add(t, "ada@example.com", "x", false)
	r := newRouter(h)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", validSignUp()))

	rec.AssertStatus(t, http.StatusConflict)
	if msg := rec.Message(t); msg != "Conflict" {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleRegister_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", "{not json"},
		{"validation", map[string]any{"email": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(newHarness())
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", tt.body))

			rec.AssertStatus(t, http.StatusBadRequest)
			if rec.Message(t) == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestHandleLogin(t *testing.T) {
	tests := []struct {
		name     string
		body     SignInInput
		wantCode int
		wantMsg  string
	}{
		{"ok", SignInInput{Email: "bob@example.com", Password: "right-pass"}, http.StatusOK, ""},
		{"wrong password", SignInInput{Email: "bob@example.com", Password: "nope-nope"}, http.StatusUnauthorized, "Unauthorized"},
		{"unknown email", SignInInput{Email: "ghost@example.com", Password: "x"}, http.StatusBadRequest, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.users.add(t, "bob@example.com", "right-pass", false)
			r := newRouter(h)

			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", tt.body))

			rec.AssertStatus(t, tt.wantCode)
			if tt.wantMsg != "" {
				if msg := rec.Message(t); msg != tt.wantMsg {
					t.Errorf("message = %q, want %q", msg, tt.wantMsg)
				}
				return
			}
			var body map[string]any
			rec.DecodeJSON(t, &body)
			if tok, _ := body["token"].(string); tok == "" {
				t.Error("expected token")
			}
		})
	}
}

func TestHandleAccountRecovery(t *testing.T) {
	h := newHarness()
	h.users.add(t, "carol@example.com", "pw-123456", false)
	r := newRouter(h)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/account-recovery",
		RecoveryInput{Email: "carol@example.com", OriginURL: "https://shop.example.com"}))
	rec.AssertStatus(t, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != "true" {
		t.Errorf("body = %q, want true", got)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/account-recovery",
		RecoveryInput{Email: "ghost@example.com"}))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleResetPassword(t *testing.T) {
	h := newHarness()
	stored := h.users.add(t, "dave@example.com", "old-pass", false)
	r := newRouter(h)
	body := ResetInput{Email: "dave@example.com", Password: "new-pass-1"}

	// No token.
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/reset-password", body))
	rec.AssertStatus(t, http.StatusUnauthorized)

	// Garbage token.
	req := testutil.NewJSONRequest(t, http.MethodPut, "/reset-password", body)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)

	token, err := h.issuer.Issue(stored.ID.Hex(), stored.Email, tokens.OneDay)
	if err != nil {
		t.Fatal(err)
	}

	req = testutil.NewJSONRequest(t, http.MethodPut, "/reset-password", body)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewJSONRequest(t, http.MethodPut, "/reset-password",
		ResetInput{Email: "ghost@example.com", Password: "new-pass-1"})
	req.Header.Set("Authorization", "Bearer "+token)
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

type auditSink struct{ events []audit.Event }

func (s *auditSink) Log(_ context.Context, e audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

func TestHandleLogin_Audited(t *testing.T) {
	h := newHarness()
	h.users.add(t, "bob@example.com", "right-pass", false)
	sink := &auditSink{}
	handler := NewHandler(h.svc, auditlog.New(sink, zap.NewNop(), auditlog.Config{Auth: auditlog.DB}), zap.NewNop())
	r := Routes(handler, bearer.NewAuthenticator(h.issuer, zap.NewNop()))

	for _, in := range []SignInInput{
		{Email: "bob@example.com", Password: "right-pass"},
		{Email: "bob@example.com", Password: "nope-nope"},
		{Email: "ghost@example.com", Password: "x"},
	} {
		r.ServeHTTP(testutil.NewRecorder(), testutil.NewJSONRequest(t, http.MethodPost, "/login", in))
	}

	want := []string{audit.EventLoginSuccess, audit.EventLoginFailedWrongPassword, audit.EventLoginFailedUserNotFound}
	if len(sink.events) != len(want) {
		t.Fatalf("recorded %d events, want %d", len(sink.events), len(want))
	}
	for i, e := range sink.events {
		if e.EventType != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.EventType, want[i])
		}
	}
	if sink.events[0].UserID == nil || sink.events[0].TenantID == nil {
		t.Error("success event should carry the user and tenant")
	}
}

func TestHandleLogin_AuditMethod(t *testing.T) {
	tests := []struct {
		name string
		in   SignInInput
		want string
	}{
		{"password", SignInInput{Email: "bob@example.com", Password: "right-pass"}, "password"},
		{"social with password", SignInInput{Email: "bob@example.com", Password: "right-pass", UseSocialLogin: true}, "password"},
		{"social without password", SignInInput{Email: "bob@example.com", UseSocialLogin: true}, "social"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.users.add(t, "bob@example.com", "right-pass", false)
			sink := &auditSink{}
			handler := NewHandler(h.svc, auditlog.New(sink, zap.NewNop(), auditlog.Config{Auth: auditlog.DB}), zap.NewNop())
			r := Routes(handler, bearer.NewAuthenticator(h.issuer, zap.NewNop()))

			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/login", tt.in))
			rec.AssertStatus(t, http.StatusOK)

			if len(sink.events) != 1 {
				t.Fatalf("recorded %d events, want 1", len(sink.events))
			}
			if got := sink.events[0].Details["auth_method"]; got != tt.want {
				t.Errorf("auth_method = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleRegister_RoleMissing(t *testing.T) {
	h := newHarness()
	h.roles.names = map[string]primitive.ObjectID{}
	r := newRouter(h)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", validSignUp()))

	rec.AssertStatus(t, http.StatusBadRequest)
	if msg := rec.Message(t); msg != ErrRoleMissing.Error() {
		t.Errorf("message = %q, want %q", msg, ErrRoleMissing.Error())
	}
}
