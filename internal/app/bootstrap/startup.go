// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	rolestore "github.com/dalemusser/lightspeed/internal/app/store/roles"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It applies the configured timeouts, seeds the default roles signup depends
// on, and starts the mail relay when one was prepared.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if err := seedRoles(ctx, deps, logger); err != nil {
		return err
	}

	if deps.MailRelay != nil {
		deps.MailRelay.Start()
	}
	return nil
}

func seedRoles(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	n, err := rolestore.New(deps.MongoDatabase).Seed(ctx, rolestore.Defaults...)
	if err != nil {
		logger.Error("seeding roles failed", zap.Error(err))
		return err
	}
	if n > 0 {
		logger.Info("seeded roles", zap.Int("inserted", n))
	}
	return nil
}
