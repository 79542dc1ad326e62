package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type auditFlags struct {
	tenant    string
	user      string
	category  string
	eventType string
	since     time.Duration
	limit     int64
}

func (f auditFlags) filter(now time.Time) (audit.QueryFilter, error) {
	q := audit.QueryFilter{Category: f.category, EventType: f.eventType, Limit: f.limit}
	if f.tenant != "" {
		id, err := primitive.ObjectIDFromHex(f.tenant)
		if err != nil {
			return q, fmt.Errorf("--tenant: %w", err)
		}
		q.TenantID = &id
	}
	if f.user != "" {
		id, err := primitive.ObjectIDFromHex(f.user)
		if err != nil {
			return q, fmt.Errorf("--user: %w", err)
		}
		q.UserID = &id
	}
	if f.since > 0 {
		t := now.Add(-f.since)
		q.Since = &t
	}
	return q, nil
}

func newAuditCommand(v *viper.Viper) *cobra.Command {
	var f auditFlags
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent audit events, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.filter(time.Now().UTC())
			if err != nil {
				return err
			}
			return withDatabase(cmd.Context(), v, func(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
				store := audit.New(db)
				total, err := store.Count(ctx, q)
				if err != nil {
					return fmt.Errorf("count events: %w", err)
				}
				events, err := store.Query(ctx, q)
				if err != nil {
					return fmt.Errorf("query events: %w", err)
				}
				log.Debug("audit query", zap.Int64("total", total), zap.Int("returned", len(events)))
				return printEvents(cmd.OutOrStdout(), events, total)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.tenant, "tenant", "", "Tenant id")
	fl.StringVar(&f.user, "user", "", "Affected user id")
	fl.StringVar(&f.category, "category", "", "auth or content")
	fl.StringVar(&f.eventType, "type", "", "Event type, e.g. login_failed_wrong_password")
	fl.DurationVar(&f.since, "since", 24*time.Hour, "Only events newer than this (0 for all)")
	fl.Int64Var(&f.limit, "limit", 50, "Maximum events to print")
	return cmd
}

func printEvents(w io.Writer, events []audit.Event, total int64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tUSER\tIP\tOK\tREASON")
	for _, e := range events {
		user := "-"
		if e.UserID != nil {
			user = e.UserID.Hex()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			e.Timestamp.Format(time.RFC3339), e.EventType, user, e.IP, e.Success, e.FailureReason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d event(s)\n", len(events), total)
	return err
}
