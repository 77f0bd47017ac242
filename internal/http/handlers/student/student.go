// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────
// chi, like net/http, calls handlers with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// There is no room for a store or a logger in that signature, so every
// handler here is built by a factory that:
//  1. Accepts its dependencies (storage, logger)
//  2. Returns a function with the exact signature the router needs
//
// The inner function closes over the factory's parameters:
//
//	r.Post("/students", student.New(store, log))
//	//                  ^^^^^^^^^^^^^^^^^^^^^^^^
//	//                  called ONCE when the route is registered;
//	//                  the returned func runs on EVERY request.
package student

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/students-roster/internal/storage"
	"github.com/aanand-mishra/students-roster/internal/utils/response"
)

// Generic 500 messages, one per operation. The underlying store error is
// logged by response.WriteError and never sent to the caller.
const (
	msgCreateFailed = "An error occurred while creating the student."
	msgListFailed   = "An error occurred while fetching students."
	msgGetFailed    = "An error occurred while fetching the student."
	msgUpdateFailed = "An error occurred while updating the student."
	msgDeleteFailed = "An error occurred while deleting the student."
	msgDeleted      = "Student deleted successfully."
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "FirstName": "Ada", "LastName": "Lovelace", "School": "Analytic" }
//
// Success response (201 Created), the stored record with its new id:
//
//	{ "StudentId": 1, "FirstName": "Ada", "LastName": "Lovelace", "School": "Analytic" }
//
// Error responses:
//
//	400 Bad Request  missing/empty field, malformed JSON, oversized body
//	500 Internal     store failure
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage, log *slog.Logger) http.HandlerFunc {
	// Runs once at registration; every record this handler logs carries op.
	log = log.With(slog.String("op", "student.New"))

	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("creating a student")

		// ── Step 1: Decode and validate the body ──────────────────────
		// An empty body decodes to a NewStudent with every field missing,
		// so it fails validation like {} does.
		payload, err := decodeNewStudent(w, r)
		if err != nil {
			response.WriteError(w, log, err, msgCreateFailed)
			return
		}

		// ── Step 2: Persist ───────────────────────────────────────────
		// The Storage interface hides which backend is behind it.
		created, err := store.Create(r.Context(), payload)
		if err != nil {
			response.WriteError(w, log, err, msgCreateFailed)
			return
		}

		log.Info("student created", slog.Int64("id", created.StudentID))

		// ── Step 3: Return 201 with the full record ───────────────────
		response.WriteJSON(w, http.StatusCreated, created) //nolint:errcheck // best-effort write
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students
// Returns every student in store order.
//
// Success response (200 OK), [] (never null) when the table is empty:
//
//	[ { "StudentId": 1, "FirstName": "Ada", ... }, ... ]
//
// Error responses:
//
//	500 Internal     store failure
//
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("op", "student.GetList"))

	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("getting all students")

		students, err := store.List(r.Context())
		if err != nil {
			response.WriteError(w, log, err, msgListFailed)
			return
		}

		response.WriteJSON(w, http.StatusOK, students) //nolint:errcheck // best-effort write
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
// Fetches a single student by primary key.
//
// Path parameter: {id}, passed to the store as written. A value that is
// not a number simply matches no row.
//
// Error responses:
//
//	400 Bad Request  no {id} in the path
//	404 Not Found    no student with that id
//	500 Internal     store failure
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("op", "student.GetByID"))

	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Read {id} from the chi route context ──────────────
		id, err := pathID(r)
		if err != nil {
			response.WriteError(w, log, err, msgGetFailed)
			return
		}
		log.Info("getting a student", slog.String("id", id))

		// ── Step 2: Look it up ────────────────────────────────────────
		// types.ErrNotFound becomes a 404 inside WriteError.
		student, err := store.Get(r.Context(), id)
		if err != nil {
			response.WriteError(w, log, err, msgGetFailed)
			return
		}

		response.WriteJSON(w, http.StatusOK, student) //nolint:errcheck // best-effort write
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT and PATCH /students/{id}
// Changes only the fields present (and non-empty) in the body; the rest
// keep their stored values.
//
// Request body (JSON), any subset of the three fields:
//
//	{ "School": "Imperial" }
//
// Error responses:
//
//	400 Bad Request  no {id}, no usable field, malformed JSON
//	404 Not Found    no student with that id
//	500 Internal     store failure
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("op", "student.Update"))

	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Path id ───────────────────────────────────────────
		id, err := pathID(r)
		if err != nil {
			response.WriteError(w, log, err, msgUpdateFailed)
			return
		}
		log.Info("updating a student", slog.String("id", id))

		// ── Step 2: Decode the patch ──────────────────────────────────
		// Rejected before the store is touched, so a bad request can
		// never change a row.
		patch, err := decodePatch(w, r)
		if err != nil {
			response.WriteError(w, log, err, msgUpdateFailed)
			return
		}

		// ── Step 3: Apply it ──────────────────────────────────────────
		// The store reads the row, merges the patch and writes it back
		// in one transaction.
		updated, err := store.Update(r.Context(), id, patch)
		if err != nil {
			response.WriteError(w, log, err, msgUpdateFailed)
			return
		}

		log.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated) //nolint:errcheck // best-effort write
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
//
// Success response (200 OK):
//
//	{ "message": "Student deleted successfully." }
//
// A second delete of the same id is a 404: the store reports zero rows
// affected as types.ErrNotFound.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("op", "student.Delete"))

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			response.WriteError(w, log, err, msgDeleteFailed)
			return
		}
		log.Info("deleting a student", slog.String("id", id))

		if err := store.Delete(r.Context(), id); err != nil {
			response.WriteError(w, log, err, msgDeleteFailed)
			return
		}

		log.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message(msgDeleted)) //nolint:errcheck // best-effort write
	}
}
