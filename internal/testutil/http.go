package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/app/system/tenant"
	"github.com/dalemusser/lightspeed/internal/domain/models"
)

// WithUser adds u's identity and tenant to the request context, as
// Authenticator.Require followed by tenant.Middleware would.
func WithUser(r *http.Request, u models.User) *http.Request {
	ctx := auth.WithIdentity(r.Context(), auth.Identity{UserID: u.ID.Hex(), Email: u.Email})
	ctx = tenant.WithInfo(ctx, &tenant.Info{TenantID: u.TenantID, UserID: u.ID, RoleID: u.RoleID})
	return r.WithContext(ctx)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()

	var body io.Reader
	switch b := v.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with u in context.
func NewAuthenticatedRequest(method, target string, u models.User) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), u)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertRedirectPrefix checks for a redirect whose Location starts with prefix.
func (r *ResponseRecorder) AssertRedirectPrefix(t interface{ Errorf(string, ...any) }, prefix string) {
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if loc := r.Header().Get("Location"); !strings.HasPrefix(loc, prefix) {
		t.Errorf("redirect location: got %q, want prefix %q", loc, prefix)
	}
}

// DecodeJSON decodes the response body into dst.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}

// Message returns the "message" field of a JSON error body.
func (r *ResponseRecorder) Message(t *testing.T) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	r.DecodeJSON(t, &body)
	return body.Message
}
