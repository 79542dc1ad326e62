package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/bootstrap"
	rolestore "github.com/dalemusser/lightspeed/internal/app/store/roles"
	"github.com/dalemusser/lightspeed/internal/app/system/indexes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	mongoURIFlag      = "mongo_uri"
	mongoDatabaseFlag = "mongo_database"
	timeoutFlag       = "timeout"
)

// newViper reads LIGHTSPEED_* environment variables, matching the server's
// configuration keys. Explicit flags win over the environment.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("LIGHTSPEED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// newRootCommand builds the CLI on top of v.
func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "lightspeedctl",
		Short:         "Maintenance commands for the lightspeed database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(mongoURIFlag, "mongodb://localhost:27017", "MongoDB connection URI")
	flags.String(mongoDatabaseFlag, "lightspeed", "MongoDB database name")
	flags.Duration(timeoutFlag, 30*time.Second, "Deadline for the whole command")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newEnsureSchemaCommand(v),
		newSeedRolesCommand(v),
		newAuditCommand(v),
	)
	return root
}

func newEnsureSchemaCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-schema",
		Short: "Create the indexes every collection relies on",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), v, func(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
				if err := indexes.EnsureAll(ctx, db); err != nil {
					return fmt.Errorf("ensure indexes: %w", err)
				}
				log.Info("indexes ensured", zap.String("database", db.Name()))
				fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
				return nil
			})
		},
	}
}

func newSeedRolesCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles [name...]",
		Short: "Insert the default roles (or the named ones) if missing",
		Long: `Insert roles that do not exist yet. With no arguments the default
admin and user roles are seeded; signup fails until the admin role exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = rolestore.Defaults
			}
			return withDatabase(cmd.Context(), v, func(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
				n, err := rolestore.New(db).Seed(ctx, names...)
				if err != nil {
					return fmt.Errorf("seed roles: %w", err)
				}
				log.Info("roles seeded", zap.Strings("names", names), zap.Int("inserted", n))
				fmt.Fprintf(cmd.OutOrStdout(), "%d role(s) inserted\n", n)
				return nil
			})
		},
	}
}

// withDatabase connects with the same pool settings as the server, runs fn
// and disconnects.
func withDatabase(ctx context.Context, v *viper.Viper, fn func(context.Context, *mongo.Database, *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, v.GetDuration(timeoutFlag))
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := appConfig(v)
	client, err := bootstrap.ConnectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	return fn(ctx, client.Database(cfg.MongoDatabase), logger)
}

func appConfig(v *viper.Viper) bootstrap.AppConfig {
	return bootstrap.AppConfig{
		MongoURI:      v.GetString(mongoURIFlag),
		MongoDatabase: v.GetString(mongoDatabaseFlag),
	}
}
