package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"project-planner/internal/api"
)

// Client is the query surface the store reads from and writes through.
// *api.Service and *api.HTTPClient implement it.
type Client interface {
	ListProjects(ctx context.Context) ([]api.ProjectSummary, error)
	GetProject(ctx context.Context, id string) (*api.Project, error)
	ReassignTask(ctx context.Context, taskID, categoryID string) (*api.ReassignTaskResult, error)
}

// Store owns one State. Loads carry a generation number so a response is
// applied only if no newer load of the same kind was started after it.
// Patches committed while a project load is in flight are replayed on top
// of that load's response. Failed requests never touch the state.
//
// Subscribers are notified in commit order, one state at a time, and never
// with the lock held, so a subscriber may call back into the store.
type Store struct {
	client Client
	log    logrus.FieldLogger

	mu          sync.Mutex
	state       State
	projectsGen uint64
	currentGen  uint64

	patchSeq uint64
	patches  []appliedPatch
	loading  int

	subs      map[int]func(State)
	nextSub   int
	pending   []State
	notifying bool
}

// appliedPatch is a committed reassignment kept for replay onto project
// loads that started before it.
type appliedPatch struct {
	seq    uint64
	taskID string
	res    api.ReassignTaskResult
}

type Option func(*Store)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithState seeds the store, mostly for tests.
func WithState(state State) Option {
	return func(s *Store) { s.state = state.Clone() }
}

func New(client Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		log:    logrus.StandardLogger(),
		subs:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive a copy of the state after every
// change. The returned func removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) LoadProjects(ctx context.Context) error {
	s.mu.Lock()
	s.projectsGen++
	gen := s.projectsGen
	s.mu.Unlock()

	list, err := s.client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("load projects: %w", err)
	}

	s.apply(func(st State) (State, bool) {
		if gen != s.projectsGen {
			s.log.WithField("generation", gen).Debug("store: dropping stale project list")
			return st, false
		}
		return ReplaceProjects(st, list), true
	})
	return nil
}

// LoadProject replaces the current project with the full shape of id.
func (s *Store) LoadProject(ctx context.Context, id string) error {
	s.mu.Lock()
	s.currentGen++
	gen := s.currentGen
	since := s.patchSeq
	s.loading++
	s.mu.Unlock()

	project, err := s.client.GetProject(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.loadDone()
		s.mu.Unlock()
		return fmt.Errorf("load project %s: %w", id, err)
	}

	s.apply(func(st State) (State, bool) {
		defer s.loadDone()
		if gen != s.currentGen {
			s.log.WithFields(logrus.Fields{"project_id": id, "generation": gen}).Debug("store: dropping stale project")
			return st, false
		}
		next := ReplaceCurrent(st, project)
		// The server may have answered before these moves committed.
		for _, p := range s.patches {
			if p.seq > since {
				next, _ = PatchTaskCategory(next, p.taskID, p.res)
			}
		}
		return next, true
	})
	return nil
}

// loadDone is called with the lock held when a project load finishes.
func (s *Store) loadDone() {
	s.loading--
	if s.loading == 0 {
		s.patches = nil
	}
}

// ReassignTask sends the move and patches the cached task's category with
// the server's answer. Nothing is refetched. A patch that does not apply
// to the cached project is skipped without error.
func (s *Store) ReassignTask(ctx context.Context, taskID, categoryID string) error {
	res, err := s.client.ReassignTask(ctx, taskID, categoryID)
	if err != nil {
		return fmt.Errorf("reassign task %s: %w", taskID, err)
	}

	s.apply(func(st State) (State, bool) {
		s.patchSeq++
		if s.loading > 0 {
			s.patches = append(s.patches, appliedPatch{seq: s.patchSeq, taskID: taskID, res: *res})
		}
		next, ok := PatchTaskCategory(st, taskID, *res)
		if !ok {
			s.log.WithField("task_id", taskID).Debug("store: task not in current project, patch skipped")
		}
		return next, ok
	})
	return nil
}

// apply runs fn under the lock and, if it changed the state, queues a
// snapshot for subscribers. Whichever caller finds no delivery running
// drains the queue, so snapshots go out in the order they were committed.
func (s *Store) apply(fn func(State) (State, bool)) {
	s.mu.Lock()
	next, changed := fn(s.state)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.pending = append(s.pending, next.Clone())
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		subs := make([]func(State), 0, len(s.subs))
		for _, sub := range s.subs {
			subs = append(subs, sub)
		}
		s.mu.Unlock()

		for _, snapshot := range batch {
			for _, sub := range subs {
				sub(snapshot.Clone())
			}
		}
		s.mu.Lock()
	}
	s.notifying = false
	s.mu.Unlock()
}
