// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite keeps the whole roster in a single file (or in memory for
// ":memory:"), with no server process to run. It is the backend used
// whenever the connection string is not a postgres:// URL.
//
// The blank import below registers the sqlite3 driver with database/sql.
// The driver's init() does this when the package is loaded; nothing from
// it is called directly.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aanand-mishra/students-roster/internal/types"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

const (
	// dirPermissions is used when the database directory has to be created.
	dirPermissions = 0750

	// pingTimeout bounds the connectivity check done at open.
	pingTimeout = 5 * time.Second
)

// Schema:
//
//	StudentId  integer primary key, assigned by SQLite on insert
//	FirstName  TEXT NOT NULL
//	LastName   TEXT NOT NULL
//	School     TEXT NOT NULL
//
// CREATE TABLE IF NOT EXISTS is idempotent, so it runs on every startup.
const createTable = `
	CREATE TABLE IF NOT EXISTS Students (
		StudentId INTEGER PRIMARY KEY AUTOINCREMENT,
		FirstName TEXT    NOT NULL,
		LastName  TEXT    NOT NULL,
		School    TEXT    NOT NULL
	)`

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at dsn, creates the Students table if it
// does not already exist, and returns a ready-to-use *SQLite.
//
// dsn is either a plain file path or any go-sqlite3 connection string
// ("file:...", ":memory:").
func New(ctx context.Context, dsn string) (*SQLite, error) {
	if dsn == "" {
		return nil, errors.New("sqlite.New: empty connection string")
	}
	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), dirPermissions); err != nil {
			return nil, fmt.Errorf("sqlite.New: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite supports a single writer. One connection also keeps an
	// in-memory database alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// ─────────────────────────────────────────────────────────────────────────────
// Create inserts a new row and returns it with the generated StudentId.
//
// PREPARED STATEMENTS:
// ────────────────────
// The ? placeholders are sent to SQLite separately from the values, so a
// name like "'; DROP TABLE Students; --" is stored as plain text.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Create(ctx context.Context, student types.NewStudent) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO Students (FirstName, LastName, School) VALUES (?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, types.NewStoreError("Create", "prepare", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, student.FirstName, student.LastName, student.School)
	if err != nil {
		return types.Student{}, types.NewStoreError("Create", "exec", err)
	}

	// LastInsertId returns the auto-generated primary key of the new row.
	lastID, err := result.LastInsertId()
	if err != nil {
		return types.Student{}, types.NewStoreError("Create", "last insert id", err)
	}

	return types.Student{
		StudentID: lastID,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		School:    student.School,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Get fetches exactly one student row matched by primary key.
//
// The id is bound as text; SQLite applies the column's integer affinity
// to it, so "7" matches row 7 and "abc" matches nothing.
//
// QueryRow + Scan: Scan copies the columns into the pointers it is given
// in SELECT order. With no row, Scan returns sql.ErrNoRows, which is
// translated to types.ErrNotFound here.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Get(ctx context.Context, id string) (types.Student, error) {
	student, err := scanStudent(s.Db.QueryRowContext(ctx,
		"SELECT StudentId, FirstName, LastName, School FROM Students WHERE StudentId = ? LIMIT 1",
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, types.ErrNotFound
		}
		return types.Student{}, types.NewStoreError("Get", "scan", err)
	}
	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// List returns all student rows.
//
// A dedicated connection is taken from the pool for the query and handed
// back on every return path by the deferred Close.
//
// rows.Next() advances one row at a time; rows.Err() afterwards reports an
// error that stopped the iteration early.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) List(ctx context.Context) ([]types.Student, error) {
	conn, err := s.Db.Conn(ctx)
	if err != nil {
		return nil, types.NewStoreError("List", "acquire", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, "SELECT StudentId, FirstName, LastName, School FROM Students")
	if err != nil {
		return nil, types.NewStoreError("List", "query", err)
	}
	defer rows.Close()

	// make(..., 0) so an empty table encodes as [] rather than null.
	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, types.NewStoreError("List", "scan row", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewStoreError("List", "rows iteration", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Update loads the row, applies the patch and writes it back in one
// transaction, so omitted fields keep their stored values.
//
// The deferred Rollback is a no-op once Commit has succeeded.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Update(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Student{}, types.NewStoreError("Update", "begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	current, err := scanStudent(tx.QueryRowContext(ctx,
		"SELECT StudentId, FirstName, LastName, School FROM Students WHERE StudentId = ? LIMIT 1",
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, types.ErrNotFound
		}
		return types.Student{}, types.NewStoreError("Update", "select", err)
	}

	updated := patch.Apply(current)
	if _, err := tx.ExecContext(ctx,
		"UPDATE Students SET FirstName = ?, LastName = ?, School = ? WHERE StudentId = ?",
		updated.FirstName, updated.LastName, updated.School, updated.StudentID,
	); err != nil {
		return types.Student{}, types.NewStoreError("Update", "exec", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, types.NewStoreError("Update", "commit", err)
	}
	return updated, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete removes a student row by primary key. Zero affected rows means
// there was nothing to delete, which is reported as types.ErrNotFound.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Delete(ctx context.Context, id string) error {
	conn, err := s.Db.Conn(ctx)
	if err != nil {
		return types.NewStoreError("Delete", "acquire", err)
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, "DELETE FROM Students WHERE StudentId = ?", id)
	if err != nil {
		return types.NewStoreError("Delete", "exec", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.NewStoreError("Delete", "rows affected", err)
	}
	if affected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// Close closes the underlying pool.
func (s *SQLite) Close() error {
	if err := s.Db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var student types.Student
	err := row.Scan(
		&student.StudentID,
		&student.FirstName,
		&student.LastName,
		&student.School,
	)
	return student, err
}
