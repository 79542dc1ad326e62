package poststore_test

import (
	"errors"
	"net/url"
	"testing"

	poststore "github.com/dalemusser/lightspeed/internal/app/store/posts"
	"github.com/dalemusser/lightspeed/internal/app/system/paging"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"github.com/dalemusser/lightspeed/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_ListAndCount_TenantScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenantA := primitive.NewObjectID()
	tenantB := primitive.NewObjectID()

	for _, p := range []models.Post{
		{Name: "Go Tips", Content: "<p>channels</p>", State: "published", TenantID: tenantA},
		{Name: "Mongo notes", Description: "about GO drivers", State: "draft", TenantID: tenantA},
		{Name: "Unrelated", State: "draft", TenantID: tenantA},
		{Name: "Go Tips", State: "published", TenantID: tenantB},
	} {
		if _, err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		values url.Values
		want   int64
	}{
		{"all in tenant", url.Values{}, 3},
		{"search name and description", url.Values{"searchTerm": {"go"}}, 2},
		{"search state", url.Values{"searchTerm": {"PUBLISHED"}}, 1},
		{"search content", url.Values{"searchTerm": {"channels"}}, 1},
		{"regex chars are literal", url.Values{"searchTerm": {"go.*"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := paging.FromValues(tt.values, tenantA, paging.Posts)

			n, err := store.Count(ctx, q)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("Count = %d, want %d", n, tt.want)
			}

			list, err := store.List(ctx, q)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if int64(len(list)) != tt.want {
				t.Errorf("List returned %d, want %d", len(list), tt.want)
			}
			for _, p := range list {
				if p.TenantID != tenantA {
					t.Errorf("post %s belongs to another tenant", p.ID.Hex())
				}
			}
		})
	}
}

func TestStore_List_Pages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := primitive.NewObjectID()
	for _, name := range []string{"c", "a", "e", "b", "d"} {
		if _, err := store.Create(ctx, models.Post{Name: name, TenantID: tenant}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	q := paging.FromValues(url.Values{
		"page": {"2"}, "size": {"2"}, "sortField": {"name"}, "sortDirection": {"asc"},
	}, tenant, paging.Posts)

	list, err := store.List(ctx, q)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Name != "c" || list[1].Name != "d" {
		t.Errorf("page 2 = %+v, want [c d]", list)
	}
}

func TestStore_CRUD_TenantScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := poststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tenant := primitive.NewObjectID()
	other := primitive.NewObjectID()

	created, err := store.Create(ctx, models.Post{Name: "First", TenantID: tenant})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Tags == nil || created.Comments == nil {
		t.Error("expected empty slices, not nil")
	}

	if _, err := store.GetByID(ctx, other, created.ID); !errors.Is(err, poststore.ErrNotFound) {
		t.Errorf("cross-tenant GetByID: expected ErrNotFound, got %v", err)
	}

	name := "Renamed"
	updated, err := store.Update(ctx, tenant, created.ID, poststore.Update{Name: &name, Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Renamed" || len(updated.Tags) != 1 {
		t.Errorf("unexpected update result: %+v", updated)
	}
	if updated.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set")
	}

	if _, err := store.Update(ctx, other, created.ID, poststore.Update{Name: &name}); !errors.Is(err, poststore.ErrNotFound) {
		t.Errorf("cross-tenant Update: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Delete(ctx, other, created.ID); !errors.Is(err, poststore.ErrNotFound) {
		t.Errorf("cross-tenant Delete: expected ErrNotFound, got %v", err)
	}

	deleted, err := store.Delete(ctx, tenant, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("deleted ID = %v, want %v", deleted.ID, created.ID)
	}
	if _, err := store.GetByID(ctx, tenant, created.ID); !errors.Is(err, poststore.ErrNotFound) {
		t.Errorf("after Delete: expected ErrNotFound, got %v", err)
	}
}
