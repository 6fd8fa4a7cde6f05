package board

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

// Loader fetches the active task list of a project for the first
// board access.
type Loader interface {
	LoadTasks(ctx context.Context, projectID string) ([]*models.Task, error)
}

// Registry hands out one Controller per project, loading the task
// list lazily on first access. Concurrent requests for the same
// project share the same instance.
type Registry struct {
	logger    zerolog.Logger
	loader    Loader
	persister Persister

	mu     sync.Mutex
	boards map[string]*boardEntry
}

// boardEntry guards the lazy load of one project's board. The entry
// mutex serializes the first load per project only, so a slow load of
// one project never blocks access to the others.
type boardEntry struct {
	mu   sync.Mutex
	ctrl *Controller
	err  error
	done bool
}

func NewRegistry(
	logger zerolog.Logger,
	loader Loader,
	persister Persister,
) *Registry {
	return &Registry{
		logger:    logger,
		loader:    loader,
		persister: persister,
		boards:    make(map[string]*boardEntry),
	}
}

func (r *Registry) Get(ctx context.Context, projectID string) (*Controller, error) {
	r.mu.Lock()
	entry, ok := r.boards[projectID]
	if !ok {
		entry = &boardEntry{}
		r.boards[projectID] = entry
	}
	r.mu.Unlock()

	entry.mu.Lock()
	if !entry.done {
		entry.ctrl, entry.err = r.load(ctx, projectID)
		entry.done = true
	}
	ctrl, err := entry.ctrl, entry.err
	entry.mu.Unlock()

	if err != nil {
		// Drop the failed entry so the next request retries the load.
		r.mu.Lock()
		if r.boards[projectID] == entry {
			delete(r.boards, projectID)
		}
		r.mu.Unlock()
		return nil, err
	}
	return ctrl, nil
}

func (r *Registry) load(ctx context.Context, projectID string) (*Controller, error) {
	tasks, err := r.loader.LoadTasks(ctx, projectID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("project_id", projectID).
			Msg("failed to load board")
		return nil, err
	}

	r.logger.Debug().
		Str("project_id", projectID).
		Int("tasks", len(tasks)).
		Msg("loaded board")
	return NewController(r.logger, r.persister, tasks), nil
}

// AddTask reflects a freshly created task on an already-loaded
// board. Boards not loaded yet pick the task up on first load.
func (r *Registry) AddTask(projectID string, task *models.Task) {
	r.mu.Lock()
	entry, ok := r.boards[projectID]
	r.mu.Unlock()
	if !ok {
		return
	}

	entry.mu.Lock()
	ctrl := entry.ctrl
	entry.mu.Unlock()
	if ctrl != nil {
		ctrl.Add(task)
	}
}
