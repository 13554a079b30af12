/*
server.go - HTTP router setup

PURPOSE:
  Wires all API routes to their handlers and configures middleware:
  request logging, panic recovery, request IDs, and CORS for the browser
  clients that crews use in the field.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi router with all routes mounted.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/clock", func(r chi.Router) {
			r.Post("/in", h.ClockIn)
			r.Post("/out", h.ClockOut)
			r.Post("/force-out", h.ForceOut)
			r.Get("/status/{worker_id}", h.ClockStatus)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.GetPayroll)
			r.Get("/export", h.ExportPayroll)
			r.Post("/bill", h.MarkBilled)
			r.Post("/paid", h.MarkPaid)
		})

		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{worker_id}", h.GetWorker)
			r.Get("/{worker_id}/projects", h.WorkerProjects)
			r.Get("/{worker_id}/rates", h.ListPayRates)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Put("/{id}", h.UpdateProject)
			r.Post("/assign", h.AssignWorker)
			r.Post("/unassign", h.UnassignWorker)
		})

		r.Route("/rates", func(r chi.Router) {
			r.Post("/", h.CreatePayRate)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/clocking-in", h.ClockingIn)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
