package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	"github.com/dalemusser/lightspeed/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_StampsIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	before := time.Now().Add(-time.Second)
	userID := primitive.NewObjectID()
	if err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.Before(before) {
		t.Errorf("timestamp %v not set", events[0].Timestamp)
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenantA, tenantB := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()
	seed := []audit.Event{
		{TenantID: &tenantA, Category: audit.CategoryAuth, EventType: audit.EventSignUp, Success: true, Timestamp: now.Add(-3 * time.Hour)},
		{TenantID: &tenantA, Category: audit.CategoryContent, EventType: audit.EventPostCreated, Success: true, Timestamp: now.Add(-time.Minute)},
		{TenantID: &tenantB, Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Success: true, Timestamp: now},
		{Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound, Timestamp: now},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	hourAgo := now.Add(-time.Hour)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"tenant", audit.QueryFilter{TenantID: &tenantA}, 2},
		{"category", audit.QueryFilter{Category: audit.CategoryAuth}, 3},
		{"event type", audit.QueryFilter{EventType: audit.EventLoginFailedUserNotFound}, 1},
		{"since", audit.QueryFilter{Since: &hourAgo}, 3},
		{"limit", audit.QueryFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}

	n, err := store.Count(ctx, audit.QueryFilter{TenantID: &tenantA})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	events, _ := store.Query(ctx, audit.QueryFilter{TenantID: &tenantA})
	if len(events) == 2 && events[0].EventType != audit.EventPostCreated {
		t.Error("expected newest first")
	}
}
