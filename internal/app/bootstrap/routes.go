// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authfeature "github.com/dalemusser/lightspeed/internal/app/features/auth"
	authgooglefeature "github.com/dalemusser/lightspeed/internal/app/features/authgoogle"
	healthfeature "github.com/dalemusser/lightspeed/internal/app/features/health"
	postsfeature "github.com/dalemusser/lightspeed/internal/app/features/posts"
	productsfeature "github.com/dalemusser/lightspeed/internal/app/features/products"
	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	rolestore "github.com/dalemusser/lightspeed/internal/app/store/roles"
	tenantstore "github.com/dalemusser/lightspeed/internal/app/store/tenants"
	userstore "github.com/dalemusser/lightspeed/internal/app/store/users"
	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	"github.com/dalemusser/lightspeed/internal/app/system/auth"
	"github.com/dalemusser/lightspeed/internal/app/system/mailer"
	"github.com/dalemusser/lightspeed/internal/app/system/metrics"
	"github.com/dalemusser/lightspeed/internal/app/system/passwords"
	"github.com/dalemusser/lightspeed/internal/app/system/ratelimit"
	"github.com/dalemusser/lightspeed/internal/app/system/reqlog"
	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/tenant"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/lightspeed/internal/app/system/tokens"
	"github.com/dalemusser/lightspeed/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed.
//
// Public: /health, /metrics, /auth (rate limited) and /auth/google.
// Protected (bearer token, then tenant resolution): /post and /product.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	prod := coreCfg.Env == "prod"
	db := deps.MongoDatabase

	m := metrics.New()
	issuer := tokens.NewIssuer(appCfg.JWTSecret, appCfg.JWTIssuer)
	authn := auth.NewAuthenticator(issuer, logger)
	txns := txn.NewMongo(deps.MongoClient, appCfg.TxnFallback)
	users := userstore.New(db)

	store, files, err := buildStorage(appCfg)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}

	cookieKey := []byte(appCfg.StateCookieKey)
	if len(cookieKey) == 0 {
		cookieKey = securecookie.GenerateRandomKey(32)
	}

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Content: appCfg.AuditLogContent,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(reqlog.Middleware(logger))
	r.Use(m.Middleware)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger, optionalChecks(appCfg, deps)...)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	if files != nil {
		r.Handle(strings.TrimRight(appCfg.StorageLocalURL, "/")+"/*", files)
	}

	// Authentication (public, rate limited per client)
	limit := ratelimit.Middleware(buildLimiter(appCfg, deps), logger)

	svc := authfeature.NewService(authfeature.Deps{
		Users:         users,
		Tenants:       tenantstore.New(db),
		Roles:         rolestore.New(db),
		Txns:          txns,
		Hasher:        passwords.NewHasher(appCfg.BcryptCost),
		Tokens:        issuer,
		Mail:          buildSender(appCfg, logger),
		Recorder:      m,
		Log:           logger,
		DefaultOrigin: appCfg.BaseURL,
	})
	authHandler := authfeature.NewHandler(svc, auditLog, logger)
	r.Mount("/auth", limit(authfeature.Routes(authHandler, authn)))

	googleHandler := authgooglefeature.NewHandler(db, issuer, authgooglefeature.Config{
		ClientID:     appCfg.GoogleClientID,
		ClientSecret: appCfg.GoogleClientSecret,
		BaseURL:      appCfg.APIURL,
	}, cookieKey, appCfg.BaseURL, prod, auditLog, logger)
	r.Mount("/auth/google", limit(authgooglefeature.Routes(googleHandler)))

	// Tenant-scoped resources
	protected := func(h http.Handler) http.Handler {
		return authn.Require(tenant.Middleware(users, logger)(h))
	}

	postsHandler := postsfeature.NewHandler(db, auditLog, logger)
	r.Mount("/post", protected(postsfeature.Routes(postsHandler)))

	productsHandler := productsfeature.NewHandler(db, store, txns, auditLog, logger)
	r.Mount("/product", protected(productsfeature.Routes(productsHandler)))

	return r, nil
}

// buildSender queues mail on RabbitMQ when configured, else sends inline.
func buildSender(appCfg AppConfig, logger *zap.Logger) mailer.Sender {
	if appCfg.AMQPURL != "" {
		return mailer.NewQueue(appCfg.AMQPURL, appCfg.AMQPMailQueue, logger)
	}
	return smtpMailer(appCfg, logger)
}

// buildLimiter shares limits across instances through Redis when available.
func buildLimiter(appCfg AppConfig, deps DBDeps) ratelimit.Limiter {
	if deps.Redis != nil {
		return ratelimit.NewTokenBucket(deps.Redis, "lightspeed:ratelimit:auth", appCfg.AuthRateLimit, appCfg.AuthRateWindow)
	}
	return ratelimit.NewMemory(appCfg.AuthRateLimit, appCfg.AuthRateWindow)
}

// buildStorage returns the upload backend. For local storage it also returns
// the handler serving stored files.
func buildStorage(appCfg AppConfig) (storage.Store, http.Handler, error) {
	switch appCfg.StorageType {
	case "s3":
		ctx, cancel := timeouts.WithMedium(context.Background())
		defer cancel()
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("s3 storage: %w", err)
		}
		return s3, nil, nil
	case "local":
		local, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("local storage: %w", err)
		}
		prefix := strings.TrimRight(appCfg.StorageLocalURL, "/")
		return local, fileserver.Handler(prefix, appCfg.StorageLocalPath), nil
	default:
		return nil, nil, fmt.Errorf("unknown storage_type %q", appCfg.StorageType)
	}
}

// optionalChecks reports Redis and RabbitMQ on /health without failing it.
func optionalChecks(appCfg AppConfig, deps DBDeps) []healthfeature.Check {
	var checks []healthfeature.Check
	if deps.Redis != nil {
		checks = append(checks, healthfeature.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		})
	}
	if appCfg.AMQPURL != "" {
		checks = append(checks, healthfeature.Check{
			Name: "mail_queue",
			Ping: func(context.Context) error {
				conn, err := amqp.Dial(appCfg.AMQPURL)
				if err != nil {
					return err
				}
				return conn.Close()
			},
		})
	}
	return checks
}
