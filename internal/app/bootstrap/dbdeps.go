// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/lightspeed/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil when redis_addr is blank.
	Redis *redis.Client

	// MailRelay is nil unless a mail queue is configured and relaying is on.
	// Startup starts it and Shutdown stops it.
	MailRelay *workers.MailRelay
}
