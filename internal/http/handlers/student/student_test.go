package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/students-roster/internal/types"
	"github.com/aanand-mishra/students-roster/internal/utils/response"
)

// memStore is an in-process storage.Storage used to exercise handler logic
// without a database. failWith, when set, is returned by every call.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[string]types.Student
	calls    int
	failWith error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]types.Student{}}
}

func (m *memStore) Create(_ context.Context, s types.NewStudent) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failWith != nil {
		return types.Student{}, m.failWith
	}
	m.nextID++
	created := types.Student{StudentID: m.nextID, FirstName: s.FirstName, LastName: s.LastName, School: s.School}
	m.rows[strconv.FormatInt(m.nextID, 10)] = created
	return created, nil
}

func (m *memStore) List(context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]types.Student, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id string) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failWith != nil {
		return types.Student{}, m.failWith
	}
	s, ok := m.rows[id]
	if !ok {
		return types.Student{}, types.ErrNotFound
	}
	return s, nil
}

func (m *memStore) Update(_ context.Context, id string, p types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failWith != nil {
		return types.Student{}, m.failWith
	}
	s, ok := m.rows[id]
	if !ok {
		return types.Student{}, types.ErrNotFound
	}
	s = p.Apply(s)
	m.rows[id] = s
	return s, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.rows[id]; !ok {
		return types.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) Ping(context.Context) error { return m.failWith }
func (m *memStore) Close() error               { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve runs h with an optional {id} route parameter.
func serve(h http.HandlerFunc, method, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/students/"+id, strings.NewReader(body))
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode message body %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

func TestCreate(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		store := newMemStore()
		rec := serve(New(store, discardLogger()), http.MethodPost, "",
			`{"FirstName":"Ada","LastName":"Lovelace","School":"Analytic"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var got types.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := types.Student{StudentID: 1, FirstName: "Ada", LastName: "Lovelace", School: "Analytic"}
		if got != want {
			t.Fatalf("created = %+v, want %+v", got, want)
		}
	})

	invalid := map[string]string{
		"empty body":       ``,
		"empty object":     `{}`,
		"missing school":   `{"FirstName":"Ada","LastName":"Lovelace"}`,
		"empty first name": `{"FirstName":"","LastName":"Lovelace","School":"Analytic"}`,
		"null last name":   `{"FirstName":"Ada","LastName":null,"School":"Analytic"}`,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			rec := serve(New(store, discardLogger()), http.MethodPost, "", body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := messageOf(t, rec); msg != msgCreateRequired {
				t.Fatalf("message = %q", msg)
			}
			if store.calls != 0 || len(store.rows) != 0 {
				t.Fatalf("store touched on invalid payload: calls=%d rows=%d", store.calls, len(store.rows))
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		store := newMemStore()
		rec := serve(New(store, discardLogger()), http.MethodPost, "", `{"FirstName":`)
		if rec.Code != http.StatusBadRequest || messageOf(t, rec) != response.MsgInvalidJSON {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		store := newMemStore()
		body := `{"FirstName":"` + strings.Repeat("a", maxBodyBytes) + `","LastName":"Lovelace","School":"Analytic"}`
		rec := serve(New(store, discardLogger()), http.MethodPost, "", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := messageOf(t, rec); msg != msgBodyTooLarge {
			t.Fatalf("message = %q", msg)
		}
		if store.calls != 0 {
			t.Fatalf("store called %d times for an oversized body", store.calls)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMemStore()
		store.failWith = types.NewStoreError("Create", "exec", errors.New("UNIQUE constraint failed"))
		rec := serve(New(store, discardLogger()), http.MethodPost, "",
			`{"FirstName":"Ada","LastName":"Lovelace","School":"Analytic"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if msg := messageOf(t, rec); msg != msgCreateFailed {
			t.Fatalf("message = %q", msg)
		}
	})
}

func TestGetList(t *testing.T) {
	t.Run("empty store returns empty array", func(t *testing.T) {
		rec := serve(GetList(newMemStore(), discardLogger()), http.MethodGet, "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Fatalf("body = %q, want []", rec.Body.String())
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMemStore()
		store.failWith = errors.New("connection reset")
		rec := serve(GetList(store, discardLogger()), http.MethodGet, "", "")
		if rec.Code != http.StatusInternalServerError || messageOf(t, rec) != msgListFailed {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestGetByID(t *testing.T) {
	store := newMemStore()
	store.Create(context.Background(), types.NewStudent{FirstName: "Ada", LastName: "Lovelace", School: "Analytic"}) //nolint:errcheck // seed

	cases := []struct {
		name    string
		id      string
		status  int
		message string
	}{
		{"found", "1", http.StatusOK, ""},
		{"missing id", "", http.StatusBadRequest, response.MsgIDRequired},
		{"unknown id", "2", http.StatusNotFound, response.MsgNotFound},
		{"non numeric id", "abc", http.StatusNotFound, response.MsgNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(GetByID(store, discardLogger()), http.MethodGet, tc.id, "")
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.message != "" && messageOf(t, rec) != tc.message {
				t.Fatalf("message = %q, want %q", messageOf(t, rec), tc.message)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	seed := func() *memStore {
		store := newMemStore()
		store.Create(context.Background(), types.NewStudent{FirstName: "Ada", LastName: "Lovelace", School: "Analytic"}) //nolint:errcheck // seed
		store.calls = 0
		return store
	}

	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		store := seed()
		rec := serve(Update(store, discardLogger()), http.MethodPatch, "1", `{"School":"Imperial"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var got types.Student
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := types.Student{StudentID: 1, FirstName: "Ada", LastName: "Lovelace", School: "Imperial"}
		if got != want || store.rows["1"] != want {
			t.Fatalf("updated = %+v, stored = %+v, want %+v", got, store.rows["1"], want)
		}
	})

	for name, body := range map[string]string{
		"empty body":    ``,
		"no fields":     `{}`,
		"empty strings": `{"FirstName":"","LastName":"","School":""}`,
		"only id":       `{"StudentId":9}`,
	} {
		t.Run(name, func(t *testing.T) {
			store := seed()
			before := store.rows["1"]
			rec := serve(Update(store, discardLogger()), http.MethodPut, "1", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := messageOf(t, rec); msg != msgUpdateRequired {
				t.Fatalf("message = %q", msg)
			}
			if store.calls != 0 || store.rows["1"] != before {
				t.Fatalf("store touched: calls=%d row=%+v", store.calls, store.rows["1"])
			}
		})
	}

	t.Run("missing id", func(t *testing.T) {
		rec := serve(Update(seed(), discardLogger()), http.MethodPut, "", `{"School":"x"}`)
		if rec.Code != http.StatusBadRequest || messageOf(t, rec) != response.MsgIDRequired {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := serve(Update(seed(), discardLogger()), http.MethodPut, "42", `{"School":"x"}`)
		if rec.Code != http.StatusNotFound || messageOf(t, rec) != response.MsgNotFound {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := seed()
		store.failWith = errors.New("deadlock")
		rec := serve(Update(store, discardLogger()), http.MethodPut, "1", `{"School":"x"}`)
		if rec.Code != http.StatusInternalServerError || messageOf(t, rec) != msgUpdateFailed {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	store.Create(context.Background(), types.NewStudent{FirstName: "Ada", LastName: "Lovelace", School: "Analytic"}) //nolint:errcheck // seed
	h := Delete(store, discardLogger())

	rec := serve(h, http.MethodDelete, "1", "")
	if rec.Code != http.StatusOK || messageOf(t, rec) != msgDeleted {
		t.Fatalf("first delete: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodDelete, "1", "")
	if rec.Code != http.StatusNotFound || messageOf(t, rec) != response.MsgNotFound {
		t.Fatalf("second delete: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodDelete, "", "")
	if rec.Code != http.StatusBadRequest || messageOf(t, rec) != response.MsgIDRequired {
		t.Fatalf("missing id: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	store.failWith = errors.New("database is locked")
	rec = serve(h, http.MethodDelete, "1", "")
	if rec.Code != http.StatusInternalServerError || messageOf(t, rec) != msgDeleteFailed {
		t.Fatalf("store failure: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
