// internal/app/system/txn/txn.go

// Package txn provides a unit of work over MongoDB sessions.
//
// Callers write their multi-document logic against the context handed to the
// callback in Run; every store call made with that context joins the
// transaction. Run guarantees the unit of work is aborted on any failure and
// released on every exit path, including panics.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// UnitOfWork is one atomic scope of writes.
type UnitOfWork interface {
	// Begin starts the transaction. Context returns a context bound to it.
	Begin(ctx context.Context) error
	Context() context.Context
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	// Release ends the underlying session. Safe to call more than once.
	Release(ctx context.Context)
}

// Factory creates units of work.
type Factory interface {
	New(ctx context.Context) (UnitOfWork, error)
}

// fallbacker is implemented by factories that allow running without a
// transaction when the server does not support one (standalone dev mongod).
type fallbacker interface {
	FallbackAllowed() bool
}

// Run executes fn inside a unit of work from f.
//
// If fn returns an error (or panics) the unit of work is aborted; otherwise it
// is committed. The unit of work is always released.
func Run(ctx context.Context, f Factory, fn func(ctx context.Context) error) error {
	err := run(ctx, f, fn)
	if err != nil && IsNotSupported(err) {
		if fb, ok := f.(fallbacker); ok && fb.FallbackAllowed() {
			zap.L().Warn("transactions not supported by server; running without a transaction", zap.Error(err))
			return fn(ctx)
		}
	}
	return err
}

func run(ctx context.Context, f Factory, fn func(ctx context.Context) error) (err error) {
	uow, err := f.New(ctx)
	if err != nil {
		return fmt.Errorf("start unit of work: %w", err)
	}
	defer uow.Release(context.WithoutCancel(ctx))

	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// may error after a failed commit
			_ = uow.Abort(context.WithoutCancel(ctx))
		}
	}()

	if err := fn(uow.Context()); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	committed = true
	return nil
}

// Mongo is a Factory backed by client sessions.
type Mongo struct {
	client   *mongo.Client
	fallback bool
}

// NewMongo returns a Factory for client. When allowFallback is true, Run
// retries without a transaction against servers that cannot run one.
func NewMongo(client *mongo.Client, allowFallback bool) *Mongo {
	return &Mongo{client: client, fallback: allowFallback}
}

// FallbackAllowed reports whether Run may retry without a transaction.
func (m *Mongo) FallbackAllowed() bool { return m.fallback }

// New starts a session. The transaction itself begins in Begin.
func (m *Mongo) New(ctx context.Context) (UnitOfWork, error) {
	sess, err := m.client.StartSession()
	if err != nil {
		return nil, err
	}
	return &mongoUnit{sess: sess}, nil
}

type mongoUnit struct {
	sess     mongo.Session
	ctx      context.Context
	released bool
}

func (u *mongoUnit) Begin(ctx context.Context) error {
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := u.sess.StartTransaction(opts); err != nil {
		return err
	}
	u.ctx = mongo.NewSessionContext(ctx, u.sess)
	return nil
}

func (u *mongoUnit) Context() context.Context {
	if u.ctx == nil {
		return context.Background()
	}
	return u.ctx
}

func (u *mongoUnit) Commit(ctx context.Context) error {
	return u.sess.CommitTransaction(ctx)
}

func (u *mongoUnit) Abort(ctx context.Context) error {
	return u.sess.AbortTransaction(ctx)
}

func (u *mongoUnit) Release(ctx context.Context) {
	if u.released {
		return
	}
	u.released = true
	u.sess.EndSession(ctx)
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone mongod, some managed tiers).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, CannotRunInTransaction variants
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }

	switch {
	case has("illegal operation"):
		return true
	case has("transaction") && (has("replica set") || has("session")):
		return true
	case has("session") && has("not supported"):
		return true
	}
	return false
}
