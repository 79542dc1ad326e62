// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	"github.com/dalemusser/lightspeed/internal/app/store/oauthstate"
	poststore "github.com/dalemusser/lightspeed/internal/app/store/posts"
	productstore "github.com/dalemusser/lightspeed/internal/app/store/products"
	rolestore "github.com/dalemusser/lightspeed/internal/app/store/roles"
	userstore "github.com/dalemusser/lightspeed/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
)

type ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

/*
EnsureAll is called at startup and by lightspeedctl ensure-schema. Each
store's EnsureIndexes is idempotent. Errors are aggregated so every problem
is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	collections := []struct {
		name string
		e    ensurer
	}{
		{"users", userstore.New(db)},
		{"roles", rolestore.New(db)},
		{"posts", poststore.New(db)},
		{"products", productstore.New(db)},
		{"oauth_states", oauthstate.New(db)},
		{"audit_events", audit.New(db)},
	}

	var problems []string
	for _, c := range collections {
		if err := c.e.EnsureIndexes(ctx); err != nil {
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
