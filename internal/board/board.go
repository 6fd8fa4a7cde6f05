package board

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not on board")

	// ErrTransitionInFlight is returned when an advance is requested
	// for a task whose previous advance hasn't been persisted yet.
	ErrTransitionInFlight = errors.New("transition already in flight")

	errUnknownStatus = errors.New("unknown task status")
)

// Persister applies a board mutation to durable storage. The task
// carries its new status (for updates) and its assignee for the
// ownership check.
type Persister interface {
	UpdateStatus(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, task *models.Task) error
}

// Controller holds the active task list of one project and drives the
// lifecycle: todo -> in_progress -> done -> removed. Mutations are
// applied to local state first and rolled back from a snapshot when
// the persistence call fails.
type Controller struct {
	logger    zerolog.Logger
	persister Persister

	mu       sync.Mutex
	tasks    []*models.Task
	inflight map[string]struct{}
}

func NewController(
	logger zerolog.Logger,
	persister Persister,
	initial []*models.Task,
) *Controller {
	tasks := make([]*models.Task, 0, len(initial))
	for _, task := range initial {
		t := *task
		tasks = append(tasks, &t)
	}
	return &Controller{
		logger:    logger,
		persister: persister,
		tasks:     tasks,
		inflight:  make(map[string]struct{}),
	}
}

type AdvanceResult struct {
	Task    models.Task
	Deleted bool
}

// Advance moves the task one step along the lifecycle. The local list
// is mutated before the persistence call so the board reflects the
// change immediately; a snapshot of the pre-mutation task (and its
// list position) is kept and restored verbatim if persistence fails.
//
// Advances on different tasks run concurrently: the persistence call
// happens outside the state lock. A second advance on the same task
// while one is outstanding returns ErrTransitionInFlight.
func (c *Controller) Advance(ctx context.Context, taskID string) (*AdvanceResult, error) {
	c.mu.Lock()

	pos := c.indexOf(taskID)
	if pos < 0 {
		c.mu.Unlock()
		return nil, ErrTaskNotFound
	}
	if _, busy := c.inflight[taskID]; busy {
		c.mu.Unlock()
		c.logger.Warn().
			Str("task_id", taskID).
			Msg("rejected overlapping transition")
		return nil, ErrTransitionInFlight
	}

	task := c.tasks[pos]
	snapshot := *task

	var deleted bool
	switch task.Status {
	case models.StatusTodo:
		task.Status = models.StatusInProgress
	case models.StatusInProgress:
		task.Status = models.StatusDone
	case models.StatusDone:
		c.tasks = append(c.tasks[:pos], c.tasks[pos+1:]...)
		deleted = true
	default:
		c.mu.Unlock()
		c.logger.Error().
			Str("task_id", taskID).
			Str("status", task.Status).
			Msg("unknown task status")
		return nil, errUnknownStatus
	}

	c.inflight[taskID] = struct{}{}
	mutated := *task
	c.mu.Unlock()

	var err error
	if deleted {
		err = c.persister.Delete(ctx, &mutated)
	} else {
		err = c.persister.UpdateStatus(ctx, &mutated)
	}

	c.mu.Lock()
	delete(c.inflight, taskID)
	if err != nil {
		c.rollback(taskID, snapshot, pos, deleted)
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Str("status", snapshot.Status).
			Msg("failed to persist transition, rolled back")
		return nil, err
	}

	c.logger.Info().
		Str("task_id", taskID).
		Str("status", mutated.Status).
		Bool("deleted", deleted).
		Msg("advanced task")
	return &AdvanceResult{Task: mutated, Deleted: deleted}, nil
}

// rollback restores the snapshot taken before the optimistic
// mutation. Deleted tasks are re-inserted at their old position.
// Caller holds c.mu.
func (c *Controller) rollback(taskID string, snapshot models.Task, pos int, deleted bool) {
	if deleted {
		restored := snapshot
		if pos > len(c.tasks) {
			pos = len(c.tasks)
		}
		c.tasks = append(c.tasks[:pos], append([]*models.Task{&restored}, c.tasks[pos:]...)...)
		return
	}

	i := c.indexOf(taskID)
	if i < 0 {
		return
	}
	*c.tasks[i] = snapshot
}

// Add puts a freshly created task on the board.
func (c *Controller) Add(task *models.Task) {
	t := *task
	c.mu.Lock()
	c.tasks = append(c.tasks, &t)
	c.mu.Unlock()
}

type Columns struct {
	Todo       []models.Task
	InProgress []models.Task
	Done       []models.Task
}

// Snapshot groups the active list into the three kanban columns.
// Returned tasks are copies.
func (c *Controller) Snapshot() Columns {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cols Columns
	for _, task := range c.tasks {
		switch task.Status {
		case models.StatusTodo:
			cols.Todo = append(cols.Todo, *task)
		case models.StatusInProgress:
			cols.InProgress = append(cols.InProgress, *task)
		case models.StatusDone:
			cols.Done = append(cols.Done, *task)
		}
	}
	return cols
}

// caller holds c.mu
func (c *Controller) indexOf(taskID string) int {
	for i, task := range c.tasks {
		if task.ID == taskID {
			return i
		}
	}
	return -1
}
