// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the out-of-the-box signing key; prod refuses to start with it.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for lightspeed.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: LIGHTSPEED_MONGO_URI, LIGHTSPEED_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "lightspeed", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "txn_fallback", Default: false, Desc: "Run multi-write flows without a transaction when the server does not support them (dev only)"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing key for bearer tokens (must be strong in production)"},
	{Name: "jwt_issuer", Default: "lightspeed", Desc: "Issuer claim stamped into bearer tokens"},
	{Name: "bcrypt_cost", Default: 12, Desc: "bcrypt work factor for password hashes"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "SPA origin used in email links when no originUrl is sent"},
	{Name: "api_url", Default: "http://localhost:8080", Desc: "Public URL of this API (OAuth callback)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@lightspeed.dev", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Lightspeed", Desc: "From display name"},

	// Mail queue
	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL; when set, mail is queued instead of sent inline"},
	{Name: "amqp_mail_queue", Default: "mail.outgoing", Desc: "Queue name for outgoing mail"},
	{Name: "mail_relay", Default: true, Desc: "Consume the mail queue in this process"},

	// Rate limiting
	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limits (blank: in-memory)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "auth_rate_limit", Default: 20, Desc: "Requests per client per window on /auth"},
	{Name: "auth_rate_window", Default: "1m", Desc: "Rate limit window (e.g., 1m, 30s)"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront URL for stored files"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID for signed URLs"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to the CloudFront private key"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "state_cookie_key", Default: "", Desc: "Key signing the OAuth state cookie (32+ bytes; random per process when blank)"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list and multi-step operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for transactions and uploads"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth events: all, db, log or off"},
	{Name: "audit_log_content", Default: "all", Desc: "Post and product changes: all, db, log or off"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (LIGHTSPEED_* for the app) and flags, with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LIGHTSPEED", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		TxnFallback:      appValues.Bool("txn_fallback"),

		JWTSecret:  appValues.String("jwt_secret"),
		JWTIssuer:  appValues.String("jwt_issuer"),
		BcryptCost: appValues.Int("bcrypt_cost"),

		BaseURL: appValues.String("base_url"),
		APIURL:  appValues.String("api_url"),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		AMQPURL:       appValues.String("amqp_url"),
		AMQPMailQueue: appValues.String("amqp_mail_queue"),
		MailRelay:     appValues.Bool("mail_relay"),

		RedisAddr:      appValues.String("redis_addr"),
		RedisPassword:  appValues.String("redis_password"),
		RedisDB:        appValues.Int("redis_db"),
		AuthRateLimit:  appValues.Int("auth_rate_limit"),
		AuthRateWindow: appValues.Duration("auth_rate_window", time.Minute),

		StorageType:        appValues.String("storage_type"),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		StateCookieKey:     appValues.String("state_cookie_key"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogContent: appValues.String("audit_log_content"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env == "prod", appCfg)
}

// validateApp holds the checks that do not need the core config.
func validateApp(prod bool, appCfg AppConfig) error {
	var errs []error

	if len(appCfg.JWTSecret) < 32 {
		errs = append(errs, errors.New("jwt_secret must be at least 32 characters"))
	}
	if prod && appCfg.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("jwt_secret must be changed in production"))
	}
	if appCfg.BcryptCost < 4 || appCfg.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt_cost %d out of range 4..31", appCfg.BcryptCost))
	}
	if prod && appCfg.TxnFallback {
		errs = append(errs, errors.New("txn_fallback is not allowed in production"))
	}
	if appCfg.AuthRateLimit <= 0 || appCfg.AuthRateWindow <= 0 {
		errs = append(errs, errors.New("auth_rate_limit and auth_rate_window must be positive"))
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			errs = append(errs, errors.New("storage_local_path is required for local storage"))
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			errs = append(errs, errors.New("storage_s3_bucket and storage_s3_region are required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType))
	}

	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_content": appCfg.AuditLogContent} {
		switch v {
		case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			errs = append(errs, fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v))
		}
	}

	if appCfg.GoogleEnabled() {
		if appCfg.StateCookieKey != "" && len(appCfg.StateCookieKey) < 32 {
			errs = append(errs, errors.New("state_cookie_key must be at least 32 bytes"))
		}
		if prod && appCfg.StateCookieKey == "" {
			errs = append(errs, errors.New("state_cookie_key is required for Google sign-in in production"))
		}
	}

	return errors.Join(errs...)
}
