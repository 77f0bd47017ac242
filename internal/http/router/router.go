// Package router wires the student handlers and middleware onto a chi
// router.
//
// Route table (prefix defaults to /api):
//
//	POST          {prefix}/students        → create a new student
//	GET           {prefix}/students        → list all students
//	GET           {prefix}/students/{id}   → get one student by ID
//	PUT, PATCH    {prefix}/students/{id}   → partially update a student
//	DELETE        {prefix}/students/{id}   → delete a student
//	GET           {prefix}/health          → store connectivity
//	GET           /metrics                 → Prometheus metrics
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/students-roster/internal/http/handlers/student"
	"github.com/aanand-mishra/students-roster/internal/http/middleware"
	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/utils/response"
)

const healthTimeout = 2 * time.Second

type Options struct {
	Prefix         string
	AllowedOrigins []string
	// Metrics may be nil, in which case a fresh collector set is created.
	Metrics *middleware.Metrics
}

// New builds the HTTP handler for the whole API.
func New(store storage.Storage, log *slog.Logger, opts Options) http.Handler {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = middleware.NewMetrics()
	}

	r := chi.NewRouter()
	r.Use(middleware.WithRequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(metrics.Middleware)

	r.Handle("/metrics", metrics.Handler())

	api := func(r chi.Router) {
		r.Get("/health", health(store, log))

		r.Route("/students", func(r chi.Router) {
			r.Post("/", student.New(store, log))
			r.Get("/", student.GetList(store, log))

			// Without an {id} segment these answer 400 "Student ID is required."
			r.Put("/", student.Update(store, log))
			r.Patch("/", student.Update(store, log))
			r.Delete("/", student.Delete(store, log))

			r.Get("/{id}", student.GetByID(store, log))
			r.Put("/{id}", student.Update(store, log))
			r.Patch("/{id}", student.Update(store, log))
			r.Delete("/{id}", student.Delete(store, log))
		})
	}

	if opts.Prefix == "" || opts.Prefix == "/" {
		api(r)
	} else {
		r.Route(opts.Prefix, api)
	}

	return r
}

func health(store storage.Storage, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}) //nolint:errcheck // best-effort write
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}) //nolint:errcheck // best-effort write
	}
}
