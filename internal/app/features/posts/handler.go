// internal/app/features/posts/handler.go
package posts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	poststore "github.com/dalemusser/lightspeed/internal/app/store/posts"
	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	"github.com/dalemusser/lightspeed/internal/app/system/htmlsanitize"
	"github.com/dalemusser/lightspeed/internal/app/system/paging"
	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/tenant"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the post persistence the handler needs. *poststore.Store implements it.
type Store interface {
	Count(ctx context.Context, q paging.Query) (int64, error)
	List(ctx context.Context, q paging.Query) ([]models.Post, error)
	GetByID(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Post, error)
	Create(ctx context.Context, p models.Post) (models.Post, error)
	Update(ctx context.Context, tenantID, id primitive.ObjectID, upd poststore.Update) (*models.Post, error)
	Delete(ctx context.Context, tenantID, id primitive.ObjectID) (*models.Post, error)
}

type Handler struct {
	Posts Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Posts: poststore.New(db), Audit: auditLog, Log: logger}
}

// PostInput is the create/update body. On update, omitted fields are kept.
type PostInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Content     *string  `json:"content"`
	URL         *string  `json:"url"`
	State       *string  `json:"state"`
	Tags        []string `json:"tags"`
	Comments    []string `json:"comments"`
}

var notBlank = validation.By(func(v interface{}) error {
	if s, ok := v.(*string); ok && s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// Validate will validate the payload. creating requires a name.
func (in PostInput) Validate(creating bool) error {
	nameRules := []validation.Rule{notBlank, validation.Length(1, 200)}
	if creating {
		nameRules = append([]validation.Rule{validation.Required}, nameRules...)
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, nameRules...),
		validation.Field(&in.URL, is.URL),
		validation.Field(&in.State, validation.Length(0, 50)),
	)
}

func (in PostInput) update() poststore.Update {
	upd := poststore.Update{
		Name:        trimmed(in.Name),
		Description: in.Description,
		URL:         trimmed(in.URL),
		State:       trimmed(in.State),
		Tags:        in.Tags,
		Comments:    in.Comments,
	}
	if in.Content != nil {
		c := htmlsanitize.Sanitize(*in.Content)
		upd.Content = &c
	}
	return upd
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ServeList returns a page of the caller's tenant's posts.
// GET /post
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := paging.Parse(r, tenant.IDFromRequest(r), paging.Posts)

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	results, err := h.Posts.List(ctx, q)
	if err != nil {
		h.fail(w, "list posts failed", err)
		return
	}
	records, err := h.Posts.Count(ctx, q)
	if err != nil {
		h.fail(w, "count posts failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, paging.Page[models.Post]{Records: records, Results: results})
}

// ServeGet returns one post.
// GET /post/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	p, err := h.Posts.GetByID(ctx, tenant.IDFromRequest(r), id)
	if err != nil {
		h.fail(w, "get post failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// HandleCreate stores a post authored by the caller in the caller's tenant.
// POST /post
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in PostInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if err := in.Validate(true); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	info := tenant.FromRequest(r)
	if info == nil {
		respond.Error(w, http.StatusNotFound, "Connected user not found")
		return
	}

	upd := in.update()
	p := models.Post{
		Name:        deref(upd.Name),
		Description: deref(upd.Description),
		Content:     deref(upd.Content),
		URL:         deref(upd.URL),
		State:       deref(upd.State),
		Tags:        upd.Tags,
		Comments:    upd.Comments,
		AuthorID:    info.UserID,
		TenantID:    info.TenantID,
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	created, err := h.Posts.Create(ctx, p)
	if err != nil {
		h.fail(w, "create post failed", err)
		return
	}
	h.Audit.ContentChanged(ctx, r, audit.EventPostCreated, info.TenantID, info.UserID, created.ID)
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdate applies a partial update.
// PUT /post/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	var in PostInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Bad Request")
		return
	}
	if err := in.Validate(false); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	p, err := h.Posts.Update(ctx, tenant.IDFromRequest(r), id, in.update())
	if err != nil {
		h.fail(w, "update post failed", err)
		return
	}
	h.changed(r, audit.EventPostUpdated, id)
	respond.JSON(w, http.StatusOK, p)
}

// HandleDelete removes a post and returns it.
// DELETE /post/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithShort(r.Context())
	defer cancel()

	p, err := h.Posts.Delete(ctx, tenant.IDFromRequest(r), id)
	if err != nil {
		h.fail(w, "delete post failed", err)
		return
	}
	h.Log.Info("post deleted", zap.String("post_id", id.Hex()))
	h.changed(r, audit.EventPostDeleted, id)
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) changed(r *http.Request, eventType string, id primitive.ObjectID) {
	if info := tenant.FromRequest(r); info != nil {
		h.Audit.ContentChanged(r.Context(), r, eventType, info.TenantID, info.UserID, id)
	}
}

func postID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "Post not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, poststore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "Post not found")
		return
	}
	h.Log.Error(what, zap.Error(err))
	respond.Error(w, http.StatusBadRequest, "Bad Request")
}
