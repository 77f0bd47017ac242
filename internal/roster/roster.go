// Package roster keeps the client-side view of the student list.
//
// A Roster holds the last fetched list, a loading flag, the last fetch
// error and a refresh counter. Every TriggerRefresh bumps the counter and
// starts a full re-fetch; nothing is diffed or de-duplicated. Each fetch
// remembers the counter value it was issued for, and only the response to
// the latest issued fetch is applied, so a slow stale response can never
// overwrite a fresher one.
package roster

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aanand-mishra/students-roster/internal/types"
)

// Lister is the part of the API client the roster needs.
type Lister interface {
	ListStudents(ctx context.Context) ([]types.Student, error)
}

// State is a snapshot of the roster.
type State struct {
	Students       []types.Student
	Loading        bool
	Err            error
	RefreshCounter uint64
}

type Roster struct {
	ctx    context.Context
	lister Lister
	log    *slog.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int

	inflight sync.WaitGroup
}

// New returns an empty roster. Fetches run with ctx; they are not
// cancelled individually once issued.
func New(ctx context.Context, lister Lister, log *slog.Logger) *Roster {
	return &Roster{
		ctx:    ctx,
		lister: lister,
		log:    log,
		state:  State{Students: []types.Student{}},
		subs:   make(map[int]chan State),
	}
}

// TriggerRefresh increments the refresh counter and starts a fetch for
// it. It returns the new counter value.
func (r *Roster) TriggerRefresh() uint64 {
	r.mu.Lock()
	r.state.RefreshCounter++
	seq := r.state.RefreshCounter
	r.state.Loading = true
	r.state.Err = nil
	r.publishLocked()
	r.mu.Unlock()

	r.log.Debug("refresh triggered", slog.Uint64("seq", seq))

	r.inflight.Add(1)
	go r.fetch(seq)
	return seq
}

func (r *Roster) fetch(seq uint64) {
	defer r.inflight.Done()

	students, err := r.lister.ListStudents(r.ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.state.RefreshCounter {
		r.log.Debug("discarding stale roster response",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", r.state.RefreshCounter))
		return
	}

	if err != nil {
		r.log.Error("failed to load students", slog.String("error", err.Error()))
		r.state.Err = err
	} else {
		r.log.Debug("students loaded", slog.Int("count", len(students)))
		r.state.Students = students
		r.state.Err = nil
	}
	r.state.Loading = false
	r.publishLocked()
}

// State returns a copy of the current state.
func (r *Roster) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Wait blocks until every fetch issued so far has returned.
func (r *Roster) Wait() {
	r.inflight.Wait()
}

// Subscribe returns a channel that always holds the most recent state
// change; intermediate states may be skipped by a slow reader. Call the
// returned func to stop receiving.
func (r *Roster) Subscribe() (<-chan State, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++
	ch := make(chan State, 1)
	r.subs[id] = ch

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

func (r *Roster) snapshotLocked() State {
	s := r.state
	s.Students = append([]types.Student(nil), r.state.Students...)
	if s.Students == nil {
		s.Students = []types.Student{}
	}
	return s
}

func (r *Roster) publishLocked() {
	snapshot := r.snapshotLocked()
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
