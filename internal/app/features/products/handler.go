// internal/app/features/products/handler.go
package products

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/lightspeed/internal/app/store/audit"
	productstore "github.com/dalemusser/lightspeed/internal/app/store/products"
	"github.com/dalemusser/lightspeed/internal/app/system/auditlog"
	"github.com/dalemusser/lightspeed/internal/app/system/paging"
	"github.com/dalemusser/lightspeed/internal/app/system/respond"
	"github.com/dalemusser/lightspeed/internal/app/system/tenant"
	"github.com/dalemusser/lightspeed/internal/app/system/timeouts"
	"github.com/dalemusser/lightspeed/internal/app/system/txn"
	"github.com/dalemusser/lightspeed/internal/app/system/uploads"
	"github.com/dalemusser/lightspeed/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxUploadBytes bounds a whole multipart request.
const MaxUploadBytes = 32 << 20

// uploadDir prefixes every product file path.
const uploadDir = "products"

// Store is the product persistence the handler needs.
type Store interface {
	Count(ctx context.Context, q paging.Query) (int64, error)
	List(ctx context.Context, q paging.Query) ([]models.Product, error)
	Create(ctx context.Context, p models.Product) (models.Product, error)
}

// FileStore is the part of storage.Store the upload path uses.
type FileStore interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

type Handler struct {
	Products Store
	Storage  FileStore
	Txns     txn.Factory
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, store FileStore, txns txn.Factory, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Products: productstore.New(db),
		Storage:  store,
		Txns:     txns,
		Audit:    auditLog,
		Log:      logger,
	}
}

// ProductInput is the JSON carried in the "product" form field.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
	Tax         string  `json:"tax"`
}

// Validate will validate the payload
func (in ProductInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Price, validation.Min(0.0)),
		validation.Field(&in.Status, validation.Length(0, 50)),
		validation.Field(&in.Tax, validation.By(func(v interface{}) error {
			if s, _ := v.(string); s != "" && !primitive.IsValidObjectID(s) {
				return fmt.Errorf("must be an object id")
			}
			return nil
		})),
	)
}

// ServeList returns a page of the caller's tenant's products.
// GET /product
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := paging.Parse(r, tenant.IDFromRequest(r), paging.Products)

	ctx, cancel := timeouts.WithMedium(r.Context())
	defer cancel()

	results, err := h.Products.List(ctx, q)
	if err != nil {
		h.Log.Error("list products failed", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, "Bad Request")
		return
	}
	records, err := h.Products.Count(ctx, q)
	if err != nil {
		h.Log.Error("count products failed", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, "Bad Request")
		return
	}
	respond.JSON(w, http.StatusOK, paging.Page[models.Product]{Records: records, Results: results})
}

// HandleCreateWithFiles stores the uploaded files and then the product that
// references them. If the insert fails the uploaded objects are removed.
// POST /product/form-data
func (h *Handler) HandleCreateWithFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var in ProductInput
	if err := json.Unmarshal([]byte(r.FormValue("product")), &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "product must be a JSON object")
		return
	}
	if err := in.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	info := tenant.FromRequest(r)
	if info == nil {
		respond.Error(w, http.StatusNotFound, "Connected user not found")
		return
	}

	p := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Status:      strings.TrimSpace(in.Status),
		CreatedBy:   info.UserID,
		TenantID:    info.TenantID,
	}
	if in.Tax != "" {
		tax, _ := primitive.ObjectIDFromHex(in.Tax)
		p.TaxID = &tax
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	var paths []string
	var created models.Product
	err := txn.Run(ctx, h.Txns, func(ctx context.Context) error {
		files, uploaded, err := h.upload(ctx, r.MultipartForm.File["files"])
		paths = append(paths, uploaded...)
		if err != nil {
			return err
		}
		p.Files = files
		created, err = h.Products.Create(ctx, p)
		return err
	})
	if err != nil {
		h.cleanup(paths)
		h.Log.Error("create product failed", zap.Error(err))
		respond.Error(w, http.StatusBadRequest, "Bad Request")
		return
	}

	h.Log.Info("product created",
		zap.String("product_id", created.ID.Hex()),
		zap.Int("files", len(created.Files)))
	h.Audit.ContentChanged(ctx, r, audit.EventProductCreated, info.TenantID, info.UserID, created.ID)
	respond.JSON(w, http.StatusCreated, created)
}

// upload writes each file and returns the descriptors plus every path written,
// including those written before a failure.
func (h *Handler) upload(ctx context.Context, headers []*multipart.FileHeader) ([]models.File, []string, error) {
	files := make([]models.File, 0, len(headers))
	paths := make([]string, 0, len(headers))
	now := time.Now().UTC()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return files, paths, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		path := uploads.ObjectPath(uploadDir, fh.Filename, now)
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		err = h.Storage.Put(ctx, path, f, &storage.PutOptions{ContentType: ct})
		f.Close()
		if err != nil {
			return files, paths, fmt.Errorf("store %s: %w", fh.Filename, err)
		}
		paths = append(paths, path)
		files = append(files, models.File{
			Filename:  fh.Filename,
			Extension: uploads.Extension(fh.Filename),
			URL:       h.Storage.URL(path),
			CreatedAt: now,
		})
	}
	return files, paths, nil
}

func (h *Handler) cleanup(paths []string) {
	if len(paths) == 0 {
		return
	}
	ctx, cancel := timeouts.WithMedium(context.Background())
	defer cancel()
	for _, p := range paths {
		if err := h.Storage.Delete(ctx, p); err != nil {
			h.Log.Warn("failed to delete orphaned upload", zap.String("path", p), zap.Error(err))
		}
	}
}
