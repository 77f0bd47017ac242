// Package postgres implements storage.Storage on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/students-roster/internal/types"
)

const pingTimeout = 5 * time.Second

const createTable = `
	CREATE TABLE IF NOT EXISTS "Students" (
		"StudentId" INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		"FirstName" TEXT NOT NULL,
		"LastName"  TEXT NOT NULL,
		"School"    TEXT NOT NULL
	)`

// Ids are compared as text so that a non-numeric path value is simply
// "not found" instead of an encode error.
const (
	selectByID = `SELECT "StudentId", "FirstName", "LastName", "School" FROM "Students" WHERE "StudentId"::text = $1`
	selectAll  = `SELECT "StudentId", "FirstName", "LastName", "School" FROM "Students"`
)

type Store struct {
	Pool *pgxpool.Pool
}

// New connects to connString, verifies the connection and creates the
// Students table if needed.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Create(ctx context.Context, student types.NewStudent) (types.Student, error) {
	created, err := scanStudent(s.Pool.QueryRow(ctx,
		`INSERT INTO "Students" ("FirstName", "LastName", "School") VALUES ($1, $2, $3)
		 RETURNING "StudentId", "FirstName", "LastName", "School"`,
		student.FirstName, student.LastName, student.School,
	))
	if err != nil {
		return types.Student{}, types.NewStoreError("Create", "insert", err)
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, id string) (types.Student, error) {
	student, err := scanStudent(s.Pool.QueryRow(ctx, selectByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Student{}, types.ErrNotFound
		}
		return types.Student{}, types.NewStoreError("Get", "scan", err)
	}
	return student, nil
}

// List runs on a connection acquired for this call only; it is released
// on every return path.
func (s *Store) List(ctx context.Context) ([]types.Student, error) {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, types.NewStoreError("List", "acquire", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, selectAll)
	if err != nil {
		return nil, types.NewStoreError("List", "query", err)
	}
	defer rows.Close()

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

// Update locks the row, applies the patch and writes it back.
func (s *Store) Update(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	var updated types.Student
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		current, err := scanStudent(tx.QueryRow(ctx, selectByID+" FOR UPDATE", id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return types.ErrNotFound
			}
			return types.NewStoreError("Update", "select", err)
		}

		updated = patch.Apply(current)
		if _, err := tx.Exec(ctx,
			`UPDATE "Students" SET "FirstName" = $1, "LastName" = $2, "School" = $3 WHERE "StudentId" = $4`,
			updated.FirstName, updated.LastName, updated.School, updated.StudentID,
		); err != nil {
			return types.NewStoreError("Update", "exec", err)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, err
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		return types.NewStoreError("Delete", "acquire", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM "Students" WHERE "StudentId"::text = $1`, id)
	if err != nil {
		return types.NewStoreError("Delete", "exec", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return types.NewStoreError("Tx", "begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return types.NewStoreError("Tx", "commit", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (types.Student, error) {
	var student types.Student
	err := row.Scan(&student.StudentID, &student.FirstName, &student.LastName, &student.School)
	return student, err
}
