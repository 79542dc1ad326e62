// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers the framework-level settings (ports, TLS,
// logging, CORS, body limits). Everything lightspeed needs on top of that
// lives here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64
	TxnFallback      bool // run signup without a transaction on standalone servers (dev only)

	// Bearer tokens and password hashing
	JWTSecret  string
	JWTIssuer  string
	BcryptCost int

	// Public addresses
	BaseURL string // SPA origin used in email links when a request sends no originUrl
	APIURL  string // this service's public URL, used for the OAuth callback

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// RabbitMQ mail queue (blank means send over SMTP inline)
	AMQPURL       string
	AMQPMailQueue string
	MailRelay     bool // run the queue consumer in this process

	// Redis-backed rate limiting (blank address means in-memory limits)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// File storage configuration
	StorageType        string // "local" or "s3"
	StorageLocalPath   string
	StorageLocalURL    string
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string // CloudFront distribution serving the bucket
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	StateCookieKey     string

	// Per-operation database deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Audit destinations: all, db, log or off
	AuditLogAuth    string
	AuditLogContent string
}

// GoogleEnabled reports whether Google sign-in has client credentials.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
