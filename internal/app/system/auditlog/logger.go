// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	"github.com/dalemusser/lightspeed/internal/app/system/ratelimit"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations per category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config selects where each category of event goes.
type Config struct {
	Auth    string
	Content string
}

// Store persists events. *audit.Store implements it.
type Store interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to MongoDB and/or zap.
// A nil *Logger is a no-op, so handlers may leave it unset.
type Logger struct {
	store  Store
	zapLog *zap.Logger
	config Config
}

func New(store Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.TenantID != nil {
		fields = append(fields, zap.String("tenant_id", event.TenantID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Record writes event to the destinations configured for its category.
// Store failures are logged, never returned.
func (l *Logger) Record(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := All
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryContent:
		setting = l.config.Content
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if setting == All || setting == DB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func forUser(e audit.Event, u *models.User) audit.Event {
	if u != nil {
		id, tenantID := u.ID, u.TenantID
		e.UserID = &id
		e.TenantID = &tenantID
	}
	return e
}

// --- Authentication Events ---

// SignUp logs a new account and its tenant.
func (l *Logger) SignUp(ctx context.Context, r *http.Request, u *models.User) {
	l.Record(ctx, forUser(fromRequest(r, audit.CategoryAuth, audit.EventSignUp, true), u))
}

// LoginSuccess logs a successful sign-in. method is "password", "social" or "google".
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, u *models.User, method string) {
	e := forUser(fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, true), u)
	e.Details = map[string]string{"auth_method": method}
	l.Record(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Record(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, email string) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Record(ctx, e)
}

// RecoveryRequested logs a recovery request. sent reports whether the mail
// transport accepted the message.
func (l *Logger) RecoveryRequested(ctx context.Context, r *http.Request, email string, found, sent bool) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventRecoveryRequested, found && sent)
	switch {
	case !found:
		e.FailureReason = "user not found"
	case !sent:
		e.FailureReason = "mail not sent"
	}
	e.Details = map[string]string{"email": email}
	l.Record(ctx, e)
}

// PasswordReset logs a reset of u's password by the caller actorID.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, actorID primitive.ObjectID, u *models.User) {
	e := forUser(fromRequest(r, audit.CategoryAuth, audit.EventPasswordReset, true), u)
	if u == nil || u.ID != actorID {
		e.ActorID = &actorID
	}
	l.Record(ctx, e)
}

// --- Content Events ---

// ContentChanged logs a create, update or delete of a tenant resource.
func (l *Logger) ContentChanged(ctx context.Context, r *http.Request, eventType string, tenantID, actorID, resourceID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryContent, eventType, true)
	e.TenantID = &tenantID
	e.ActorID = &actorID
	e.Details = map[string]string{"resource_id": resourceID.Hex()}
	l.Record(ctx, e)
}
