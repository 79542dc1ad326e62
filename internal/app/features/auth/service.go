// internal/app/features/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	rolestore "github.com/dalemusser/lightspeed/internal/app/store/roles"
	userstore "github.com/dalemusser/lightspeed/internal/app/store/users"
	"github.com/dalemusser/lightspeed/internal/app/system/mailer"
	"github.com/dalemusser/lightspeed/internal/app/system/passwords"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/lightspeed/internal/app/system/tokens"
	"github.com/dalemusser/lightspeed/internal/app/system/txn"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrEmailTaken is returned by SignUp when the address is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned when no account has the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by SignIn on a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleMissing means the admin role was never seeded.
	ErrRoleMissing = errors.New("admin role is not configured")
	// ErrInvalidInput wraps payload validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// UserStore is the slice of the credential store the flow needs.
type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	UpdatePassword(ctx context.Context, email, hash string) (*models.User, error)
}

type TenantStore interface {
	Create(ctx context.Context) (models.Tenant, error)
}

type RoleStore interface {
	GetByName(ctx context.Context, name string) (*models.Role, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

type TokenIssuer interface {
	Issue(subject, email string, ttl time.Duration) (string, error)
}

// Recorder receives auth outcomes; *metrics.Metrics implements it.
type Recorder interface {
	AuthEvent(event, outcome string)
	MailFailed()
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}
func (nopRecorder) MailFailed()              {}

// Deps wires a Service. Recorder and DefaultOrigin are optional.
type Deps struct {
	Users         UserStore
	Tenants       TenantStore
	Roles         RoleStore
	Txns          txn.Factory
	Hasher        PasswordHasher
	Tokens        TokenIssuer
	Mail          mailer.Sender
	Recorder      Recorder
	Log           *zap.Logger
	DefaultOrigin string // used when a request carries no originUrl
}

// Service runs the account flows: signup, sign-in, recovery and reset.
type Service struct {
	users   UserStore
	tenants TenantStore
	roles   RoleStore
	txns    txn.Factory
	hasher  PasswordHasher
	tokens  TokenIssuer
	mail    mailer.Sender
	rec     Recorder
	log     *zap.Logger
	origin  string
}

func NewService(d Deps) *Service {
	rec := d.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:   d.Users,
		tenants: d.Tenants,
		roles:   d.Roles,
		txns:    d.Txns,
		hasher:  d.Hasher,
		tokens:  d.Tokens,
		mail:    d.Mail,
		rec:     rec,
		log:     log,
		origin:  strings.TrimRight(d.DefaultOrigin, "/"),
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}

func (s *Service) originOf(requested string) string {
	if o := strings.TrimRight(strings.TrimSpace(requested), "/"); o != "" {
		return o
	}
	return s.origin
}

// SignUp creates a tenant and its first (admin) user in one unit of work and
// returns the user carrying a one-day token. The welcome email is attempted
// before commit but its failure never aborts the signup.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		s.rec.AuthEvent("signup", "invalid")
		return nil, invalid(err)
	}

	var created models.User
	err := txn.Run(ctx, s.txns, func(ctx context.Context) error {
		exists, err := s.users.EmailExists(ctx, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}

		tenant, err := s.tenants.Create(ctx)
		if err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}

		role, err := s.roles.GetByName(ctx, models.RoleAdmin)
		if errors.Is(err, rolestore.ErrNotFound) {
			s.log.Error("admin role missing; roles were not seeded")
			return ErrRoleMissing
		}
		if err != nil {
			return fmt.Errorf("load admin role: %w", err)
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}

		u, err := s.users.Create(ctx, models.User{
			FullName:       in.FullName,
			Email:          in.Email,
			Password:       hash,
			AgreeWithTerms: in.AgreeWithTerms,
			RoleID:         role.ID,
			TenantID:       tenant.ID,
		})
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return ErrEmailTaken
		}
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		u.Token, err = s.tokens.Issue(u.ID.Hex(), u.Email, tokens.OneDay)
		if err != nil {
			return err
		}

		link := s.originOf(in.OriginURL) + "/#/app/dashboard/token/" + u.Token
		s.deliver(ctx, mailer.BuildWelcomeEmail(u.Email, mailer.LinkEmailData{FullName: u.FullName, Link: link}))

		created = u
		return nil
	})
	if err != nil {
		s.rec.AuthEvent("signup", outcome(err))
		return nil, err
	}

	s.rec.AuthEvent("signup", "ok")
	s.log.Info("account created",
		zap.String("user_id", created.ID.Hex()),
		zap.String("tenant_id", created.TenantID.Hex()))
	return &created, nil
}

// SignIn checks credentials and returns the stored user with a token valid
// for seven days when RememberBe is set, otherwise one day.
//
// When no password is sent and UseSocialLogin is set the password check is
// skipped; the client asserts it already authenticated the user elsewhere.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		s.rec.AuthEvent("signin", "invalid")
		return nil, invalid(err)
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		s.rec.AuthEvent("signin", "unknown_user")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if in.Password != "" {
		if err := s.hasher.Verify(u.Password, in.Password); err != nil {
			if !errors.Is(err, passwords.ErrMismatch) {
				s.log.Warn("password verify failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
			}
			s.rec.AuthEvent("signin", "bad_password")
			return nil, ErrInvalidCredentials
		}
	} else {
		s.log.Info("social sign-in without password", zap.String("user_id", u.ID.Hex()))
	}

	ttl := tokens.OneDay
	if in.RememberBe {
		ttl = tokens.SevenDays
	}
	u.Token, err = s.tokens.Issue(u.ID.Hex(), u.Email, ttl)
	if err != nil {
		return nil, err
	}

	s.rec.AuthEvent("signin", "ok")
	return u, nil
}

// SendAccountRecoveryLink emails a reset link carrying a one-day token.
// It reports whether the mail transport accepted the message.
func (s *Service) SendAccountRecoveryLink(ctx context.Context, in RecoveryInput) (bool, error) {
	if err := in.Validate(); err != nil {
		s.rec.AuthEvent("recovery", "invalid")
		return false, invalid(err)
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		s.rec.AuthEvent("recovery", "unknown_user")
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}

	token, err := s.tokens.Issue(u.ID.Hex(), u.Email, tokens.OneDay)
	if err != nil {
		return false, err
	}

	link := s.originOf(in.OriginURL) + "/#/auth/reset-password/" + token
	sent := s.deliver(ctx, mailer.BuildRecoveryEmail(u.Email, mailer.LinkEmailData{FullName: u.FullName, Link: link}))
	if sent {
		s.rec.AuthEvent("recovery", "ok")
	} else {
		s.rec.AuthEvent("recovery", "mail_failed")
	}
	return sent, nil
}

// UpdatePassword re-hashes and stores a new password for the account with
// in.Email. callerID is the authenticated subject; it is logged but not
// required to match the target account.
func (s *Service) UpdatePassword(ctx context.Context, callerID string, in ResetInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		s.rec.AuthEvent("reset", "invalid")
		return nil, invalid(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.UpdatePassword(ctx, in.Email, hash)
	if errors.Is(err, userstore.ErrNotFound) {
		s.rec.AuthEvent("reset", "unknown_user")
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}

	fields := []zap.Field{zap.String("user_id", u.ID.Hex()), zap.String("caller_id", callerID)}
	if callerID != u.ID.Hex() {
		s.log.Warn("password reset for another account", fields...)
	} else {
		s.log.Info("password reset", fields...)
	}
	s.rec.AuthEvent("reset", "ok")
	return u, nil
}

// deliver hands e to the mail transport and reports success. Failures are
// logged and counted, never returned.
func (s *Service) deliver(ctx context.Context, e mailer.Email) bool {
	if s.mail == nil {
		s.log.Warn("mail transport not configured; email dropped", zap.String("subject", e.Subject))
		s.rec.MailFailed()
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := s.mail.Send(ctx, e); err != nil {
		s.log.Error("send email failed", zap.String("subject", e.Subject), zap.Error(err))
		s.rec.MailFailed()
		return false
	}
	return true
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return "conflict"
	case errors.Is(err, ErrRoleMissing):
		return "misconfigured"
	default:
		return "error"
	}
}
