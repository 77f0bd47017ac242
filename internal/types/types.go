// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, the API client and the roster can all import types
// without depending on each other.
package types

// Student represents a stored student row.
//
// The JSON keys keep the column names of the Students table
// (StudentId, FirstName, ...) because the browser client and any existing
// consumers read them verbatim.
type Student struct {
	StudentID int64  `json:"StudentId"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	School    string `json:"School"`
}

// NewStudent is the validated create payload. StudentId is never accepted
// from the caller; the store assigns it.
//
// validate:"required" on a string means "present and non-empty".
type NewStudent struct {
	FirstName string `json:"FirstName" validate:"required"`
	LastName  string `json:"LastName"  validate:"required"`
	School    string `json:"School"    validate:"required"`
}

// StudentPatch is a partial update. A nil field was absent from the
// request body and leaves the stored value untouched.
//
// A field that is present but empty is treated the same as an absent one,
// so a patch can never clear a column (every column is NOT NULL anyway).
type StudentPatch struct {
	FirstName *string `json:"FirstName,omitempty"`
	LastName  *string `json:"LastName,omitempty"`
	School    *string `json:"School,omitempty"`
}

// IsEmpty reports whether the patch carries no usable field.
func (p StudentPatch) IsEmpty() bool {
	return !set(p.FirstName) && !set(p.LastName) && !set(p.School)
}

// Apply returns s with every usable patch field copied over it.
// StudentID is never touched.
func (p StudentPatch) Apply(s Student) Student {
	if set(p.FirstName) {
		s.FirstName = *p.FirstName
	}
	if set(p.LastName) {
		s.LastName = *p.LastName
	}
	if set(p.School) {
		s.School = *p.School
	}
	return s
}

func set(v *string) bool {
	return v != nil && *v != ""
}

// StringPtr is a small helper for building patches in code.
func StringPtr(s string) *string {
	return &s
}
