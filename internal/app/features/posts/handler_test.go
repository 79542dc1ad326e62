package posts

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	poststore "github.com/dalemusser/lightspeed/internal/app/store/posts"
	"github.com/dalemusser/lightspeed/internal/app/system/paging"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"github.com/dalemusser/lightspeed/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	posts      map[primitive.ObjectID]models.Post
	countQuery paging.Query
	listQuery  paging.Query
	listErr    error
}

func newFakeStore(posts ...models.Post) *fakeStore {
	f := &fakeStore{posts: map[primitive.ObjectID]models.Post{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeStore) inTenant(tenantID primitive.ObjectID) []models.Post {
	var out []models.Post
	for _, p := range f.posts {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeStore) Count(_ context.Context, q paging.Query) (int64, error) {
	f.countQuery = q
	return int64(len(f.inTenant(q.TenantID))), nil
}

func (f *fakeStore) List(_ context.Context, q paging.Query) ([]models.Post, error) {
	f.listQuery = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.inTenant(q.TenantID), nil
}

func (f *fakeStore) GetByID(_ context.Context, tenantID, id primitive.ObjectID) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.TenantID != tenantID {
		return nil, poststore.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) Create(_ context.Context, p models.Post) (models.Post, error) {
	p.ID = primitive.NewObjectID()
	f.posts[p.ID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, tenantID, id primitive.ObjectID, upd poststore.Update) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.TenantID != tenantID {
		return nil, poststore.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	f.posts[id] = p
	return &p, nil
}

func (f *fakeStore) Delete(_ context.Context, tenantID, id primitive.ObjectID) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.TenantID != tenantID {
		return nil, poststore.ErrNotFound
	}
	delete(f.posts, id)
	return &p, nil
}

func caller() models.User {
	return models.User{ID: primitive.NewObjectID(), Email: "a@example.com", TenantID: primitive.NewObjectID()}
}

func TestServeList(t *testing.T) {
	u := caller()
	store := newFakeStore(
		models.Post{ID: primitive.NewObjectID(), Name: "mine", TenantID: u.TenantID},
		models.Post{ID: primitive.NewObjectID(), Name: "theirs", TenantID: primitive.NewObjectID()},
	)
	h := &Handler{Posts: store, Log: zap.NewNop()}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/?page=2&size=5&searchTerm=go&sortDirection=sideways", u)
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Records int64            `json:"records"`
		Results []map[string]any `json:"results"`
	}
	rec.DecodeJSON(t, &body)
	if body.Records != 1 || len(body.Results) != 1 {
		t.Fatalf("records = %d, results = %d; want 1, 1", body.Records, len(body.Results))
	}
	if _, ok := body.Results[0]["id"]; !ok {
		t.Error("expected id in result")
	}

	if store.listQuery.TenantID != u.TenantID {
		t.Error("list must be scoped to the caller's tenant")
	}
	if store.listQuery.Skip != 5 || store.listQuery.Size != 5 {
		t.Errorf("skip/size = %d/%d, want 5/5", store.listQuery.Skip, store.listQuery.Size)
	}
	if store.listQuery.SortField != paging.DefaultSortField || store.listQuery.SortDirection != "" {
		t.Error("unknown direction should fall back to the default sort")
	}
	if store.countQuery.SearchTerm != store.listQuery.SearchTerm || store.countQuery.TenantID != store.listQuery.TenantID {
		t.Error("count and list must use the same query")
	}
}

func TestServeList_StoreError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("boom")
	h := &Handler{Posts: store, Log: zap.NewNop()}

	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", caller()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleCreate(t *testing.T) {
	u := caller()
	store := newFakeStore()
	h := &Handler{Posts: store, Log: zap.NewNop()}

	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"name":    "Hello",
		"content": `<p>hi</p><script>alert(1)</script>`,
		"tenant":  primitive.NewObjectID().Hex(),
	}), u)
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	if len(store.posts) != 1 {
		t.Fatalf("stored %d posts, want 1", len(store.posts))
	}
	for _, p := range store.posts {
		if p.TenantID != u.TenantID {
			t.Error("tenant must come from the caller, not the body")
		}
		if p.AuthorID != u.ID {
			t.Error("author must be the caller")
		}
		if strings.Contains(p.Content, "script") {
			t.Errorf("content not sanitized: %q", p.Content)
		}
	}
}

func TestHandleCreate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"malformed", "{"},
		{"missing name", map[string]any{"content": "x"}},
		{"blank name", map[string]any{"name": "   "}},
		{"bad url", map[string]any{"name": "x", "url": "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{Posts: newFakeStore(), Log: zap.NewNop()}
			rec := testutil.NewRecorder()
			Routes(h).ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body), caller()))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestByID_TenantScopedAndInvalidID(t *testing.T) {
	u := caller()
	mine := models.Post{ID: primitive.NewObjectID(), Name: "mine", TenantID: u.TenantID}
	theirs := models.Post{ID: primitive.NewObjectID(), Name: "theirs", TenantID: primitive.NewObjectID()}

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{"get mine", http.MethodGet, "/" + mine.ID.Hex(), nil, http.StatusOK},
		{"get theirs", http.MethodGet, "/" + theirs.ID.Hex(), nil, http.StatusNotFound},
		{"get invalid id", http.MethodGet, "/not-an-id", nil, http.StatusNotFound},
		{"update mine", http.MethodPut, "/" + mine.ID.Hex(), map[string]any{"name": "renamed"}, http.StatusOK},
		{"update theirs", http.MethodPut, "/" + theirs.ID.Hex(), map[string]any{"name": "renamed"}, http.StatusNotFound},
		{"update blank name", http.MethodPut, "/" + mine.ID.Hex(), map[string]any{"name": ""}, http.StatusBadRequest},
		{"delete theirs", http.MethodDelete, "/" + theirs.ID.Hex(), nil, http.StatusNotFound},
		{"delete invalid id", http.MethodDelete, "/zzz", nil, http.StatusNotFound},
		{"delete mine", http.MethodDelete, "/" + mine.ID.Hex(), nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(mine, theirs)
			h := &Handler{Posts: store, Log: zap.NewNop()}

			req := testutil.WithUser(testutil.NewJSONRequest(t, tt.method, tt.path, tt.body), u)
			rec := testutil.NewRecorder()
			Routes(h).ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.wantCode)

			if _, ok := store.posts[theirs.ID]; !ok {
				t.Error("another tenant's post must never be touched")
			}
		})
	}
}
