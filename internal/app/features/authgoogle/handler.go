// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/lightspeed/internal/app/store/users"
	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/lightspeed/internal/app/system/tokens"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie = "ls_oauth_state"
	stateTTL    = 10 * time.Minute
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleUser is the subset of the userinfo response the callback uses.
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Provider runs the OAuth2 exchange. googleProvider is the real one.
type Provider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (*GoogleUser, error)
}

type StateStore interface {
	Save(ctx context.Context, state, origin string, expiresAt time.Time) error
	Consume(ctx context.Context, state string) (origin string, valid bool, err error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
}

type TokenIssuer interface {
	Issue(subject, email string, ttl time.Duration) (string, error)
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Provider      Provider // nil when Google sign-in is not configured
	States        StateStore
	Users         UserStore
	Tokens        TokenIssuer
	Cookies       *securecookie.SecureCookie
	Audit         *auditlog.Logger
	DefaultOrigin string
	SecureCookie  bool
	Log           *zap.Logger
}

// Config carries the OAuth client settings.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // this API's public URL; the callback is BaseURL + /auth/google/callback
}

// NewGoogleProvider returns nil when the client id or secret is missing.
func NewGoogleProvider(cfg Config) Provider {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	return &googleProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  strings.TrimRight(cfg.BaseURL, "/") + "/auth/google/callback",
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

// NewHandler wires the Mongo-backed state and user stores. cookieKey signs the
// state cookie and must be at least 32 bytes.
func NewHandler(db *mongo.Database, issuer TokenIssuer, cfg Config, cookieKey []byte, defaultOrigin string, secure bool, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Provider:      NewGoogleProvider(cfg),
		States:        oauthstate.New(db),
		Users:         userstore.New(db),
		Tokens:        issuer,
		Cookies:       securecookie.New(cookieKey, nil).MaxAge(int(stateTTL.Seconds())),
		Audit:         auditLog,
		DefaultOrigin: defaultOrigin,
		SecureCookie:  secure,
		Log:           logger,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.Provider != nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Redirects to Google's consent screen. originUrl names the SPA to return to.  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		respond.Error(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	origin, ok := h.origin(r.URL.Query().Get("originUrl"))
	if !ok {
		respond.Error(w, http.StatusBadRequest, "originUrl must be an absolute http(s) URL")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	if err := h.States.Save(ctx, state, origin, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Binds the state to this browser so a state minted elsewhere is refused.
	encoded, err := h.Cookies.Encode(stateCookie, state)
	if err != nil {
		h.Log.Error("failed to encode state cookie", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.Log.Debug("initiating Google OAuth flow", zap.String("origin", origin))
	http.Redirect(w, r, h.Provider.AuthCodeURL(state), http.StatusFound)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, looks up the account by verified email, mints a token    |
| and hands it to the SPA the same way signup links do.                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		respond.Error(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		respond.Error(w, http.StatusBadRequest, "Google sign-in was cancelled")
		return
	}

	state := q.Get("state")
	if state == "" || !h.cookieMatches(r, state) {
		h.Log.Warn("missing or mismatched OAuth state")
		respond.Error(w, http.StatusBadRequest, "Invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth/google", MaxAge: -1})

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	origin, valid, err := h.States.Consume(ctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		respond.Error(w, http.StatusBadRequest, "Invalid state")
		return
	}

	code := q.Get("code")
	if code == "" {
		respond.Error(w, http.StatusBadRequest, "Missing code")
		return
	}

	gu, err := h.Provider.Identify(ctx, code)
	if err != nil {
		h.Log.Error("Google identify failed", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, "Google sign-in failed")
		return
	}
	if gu.Email == "" || !gu.EmailVerified {
		h.Log.Info("Google account email not verified", zap.String("google_id", gu.ID))
		respond.Error(w, http.StatusBadRequest, "Google account email is not verified")
		return
	}

	u, err := h.Users.GetByEmail(ctx, gu.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.Log.Info("Google OAuth: user not found", zap.String("google_id", gu.ID))
		respond.Error(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		h.Log.Error("failed to look up user", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !u.VerifiedEmail {
		if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
			h.Log.Warn("failed to mark email verified", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email, tokens.OneDay)
	if err != nil {
		h.Log.Error("failed to issue token", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.Log.Info("user signed in via Google", zap.String("user_id", u.ID.Hex()))
	h.Audit.LoginSuccess(ctx, r, u, "google")
	http.Redirect(w, r, origin+"/#/app/dashboard/token/"+token, http.StatusFound)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// origin validates the requested SPA origin, falling back to DefaultOrigin.
func (h *Handler) origin(raw string) (string, bool) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		raw = strings.TrimRight(h.DefaultOrigin, "/")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return raw, true
}

func (h *Handler) cookieMatches(r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return false
	}
	var stored string
	if err := h.Cookies.Decode(stateCookie, c.Value, &stored); err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			h.Log.Warn("state cookie failed verification", zap.Error(err))
		}
		return false
	}
	return stored == state
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type googleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Identify exchanges code and fetches the userinfo document.
func (p *googleProvider) Identify(ctx context.Context, code string) (*GoogleUser, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}
