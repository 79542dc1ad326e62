// internal/app/features/products/routes.go
package products

import "github.com/go-chi/chi/v5"

// Routes expects bearer auth and tenant resolution to be applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/form-data", h.HandleCreateWithFiles)
	return r
}
