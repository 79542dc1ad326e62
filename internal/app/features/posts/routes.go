// internal/app/features/posts/routes.go
package posts

import "github.com/go-chi/chi/v5"

// Routes expects bearer auth and tenant resolution to be applied by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
