package student

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/students-roster/internal/types"
	"github.com/aanand-mishra/students-roster/internal/utils/response"
)

// maxBodyBytes caps a request body; three short strings fit many times over.
const maxBodyBytes = 4 << 10

const (
	msgBodyTooLarge   = "Request body is too large."
	msgCreateRequired = "FirstName, LastName, and School are required."
	msgUpdateRequired = "At least one field (FirstName, LastName, School) is required to update."
)

// validate caches struct metadata, so one instance serves every request.
var validate = validator.New()

// decodeNewStudent turns the request body into a validated NewStudent.
// An empty body is the same as a body with every field missing.
func decodeNewStudent(w http.ResponseWriter, r *http.Request) (types.NewStudent, error) {
	var student types.NewStudent
	if err := decodeBody(w, r, &student); err != nil {
		return types.NewStudent{}, err
	}
	if err := validate.Struct(student); err != nil {
		return types.NewStudent{}, &types.ValidationError{Message: msgCreateRequired}
	}
	return student, nil
}

// decodePatch turns the request body into a patch carrying at least one
// usable field.
func decodePatch(w http.ResponseWriter, r *http.Request) (types.StudentPatch, error) {
	var patch types.StudentPatch
	if err := decodeBody(w, r, &patch); err != nil {
		return types.StudentPatch{}, err
	}
	if patch.IsEmpty() {
		return types.StudentPatch{}, &types.ValidationError{Message: msgUpdateRequired}
	}
	return patch, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &types.ValidationError{Message: msgBodyTooLarge}
	}
	return &types.ValidationError{Message: response.MsgInvalidJSON}
}

// pathID returns the {id} route parameter, or a ValidationError when it
// is absent. The value is not parsed; the store decides whether it matches.
func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		return "", &types.ValidationError{Message: response.MsgIDRequired}
	}
	return id, nil
}
