package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster-app/taskmaster/internal/models"
)

type fakePersister struct {
	mu          sync.Mutex
	updateErr   error
	deleteErr   error
	updateCalls []models.Task
	deleteCalls []models.Task

	// blockUpdate, when set, makes UpdateStatus wait until the
	// channel is closed.
	blockUpdate chan struct{}
}

func (p *fakePersister) UpdateStatus(_ context.Context, task *models.Task) error {
	if p.blockUpdate != nil {
		<-p.blockUpdate
	}
	p.mu.Lock()
	p.updateCalls = append(p.updateCalls, *task)
	p.mu.Unlock()
	return p.updateErr
}

func (p *fakePersister) Delete(_ context.Context, task *models.Task) error {
	p.mu.Lock()
	p.deleteCalls = append(p.deleteCalls, *task)
	p.mu.Unlock()
	return p.deleteErr
}

func newTestController(persister Persister, tasks ...*models.Task) *Controller {
	return NewController(zerolog.Nop(), persister, tasks)
}

func task(id, status string) *models.Task {
	return &models.Task{
		ID:         id,
		AssigneeID: "user-1",
		Title:      "task " + id,
		Priority:   models.PriorityMedium,
		Status:     status,
	}
}

func TestAdvanceFollowsLifecycle(t *testing.T) {
	persister := &fakePersister{}
	ctrl := newTestController(persister, task("t1", models.StatusTodo))

	result, err := ctrl.Advance(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, result.Task.Status)
	assert.False(t, result.Deleted)

	result, err = ctrl.Advance(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, result.Task.Status)
	assert.False(t, result.Deleted)

	result, err = ctrl.Advance(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	cols := ctrl.Snapshot()
	assert.Empty(t, cols.Todo)
	assert.Empty(t, cols.InProgress)
	assert.Empty(t, cols.Done)

	require.Len(t, persister.updateCalls, 2)
	assert.Equal(t, models.StatusInProgress, persister.updateCalls[0].Status)
	assert.Equal(t, models.StatusDone, persister.updateCalls[1].Status)
	require.Len(t, persister.deleteCalls, 1)
	assert.Equal(t, "t1", persister.deleteCalls[0].ID)
}

func TestAdvanceRemovedTaskNotFound(t *testing.T) {
	ctrl := newTestController(&fakePersister{}, task("t1", models.StatusDone))

	_, err := ctrl.Advance(context.Background(), "t1")
	require.NoError(t, err)

	_, err = ctrl.Advance(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAdvanceUnknownTask(t *testing.T) {
	ctrl := newTestController(&fakePersister{}, task("t1", models.StatusTodo))

	_, err := ctrl.Advance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAdvanceRollsBackStatusOnFailure(t *testing.T) {
	persister := &fakePersister{updateErr: errors.New("connection reset")}
	ctrl := newTestController(persister, task("t1", models.StatusTodo))

	_, err := ctrl.Advance(context.Background(), "t1")
	require.Error(t, err)

	cols := ctrl.Snapshot()
	require.Len(t, cols.Todo, 1)
	assert.Equal(t, models.StatusTodo, cols.Todo[0].Status)
	assert.Empty(t, cols.InProgress)
}

func TestAdvanceRestoresDeletedTaskOnFailure(t *testing.T) {
	persister := &fakePersister{deleteErr: errors.New("connection reset")}
	ctrl := newTestController(persister,
		task("t1", models.StatusDone),
		task("t2", models.StatusDone),
		task("t3", models.StatusDone),
	)

	_, err := ctrl.Advance(context.Background(), "t2")
	require.Error(t, err)

	// The removed task reappears at its old position.
	cols := ctrl.Snapshot()
	require.Len(t, cols.Done, 3)
	assert.Equal(t, "t1", cols.Done[0].ID)
	assert.Equal(t, "t2", cols.Done[1].ID)
	assert.Equal(t, "t3", cols.Done[2].ID)
	assert.Equal(t, models.StatusDone, cols.Done[1].Status)
}

func TestAdvanceRejectsOverlappingTransition(t *testing.T) {
	persister := &fakePersister{blockUpdate: make(chan struct{})}
	ctrl := newTestController(persister, task("t1", models.StatusTodo))

	firstDone := make(chan error, 1)
	go func() {
		_, err := ctrl.Advance(context.Background(), "t1")
		firstDone <- err
	}()

	// Wait for the optimistic mutation to land so the first advance
	// is definitely in flight.
	require.Eventually(t, func() bool {
		cols := ctrl.Snapshot()
		return len(cols.InProgress) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := ctrl.Advance(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrTransitionInFlight)

	close(persister.blockUpdate)
	require.NoError(t, <-firstDone)

	// With the first transition persisted, the next one is allowed.
	result, err := ctrl.Advance(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, result.Task.Status)
}

func TestAdvancesOnDifferentTasksOverlap(t *testing.T) {
	persister := &fakePersister{blockUpdate: make(chan struct{})}
	ctrl := newTestController(persister,
		task("t1", models.StatusTodo),
		task("t2", models.StatusDone),
	)

	firstDone := make(chan error, 1)
	go func() {
		_, err := ctrl.Advance(context.Background(), "t1")
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		cols := ctrl.Snapshot()
		return len(cols.InProgress) == 1
	}, time.Second, 5*time.Millisecond)

	// t1 is still in flight; t2 advances anyway.
	result, err := ctrl.Advance(context.Background(), "t2")
	require.NoError(t, err)
	assert.True(t, result.Deleted)

	close(persister.blockUpdate)
	require.NoError(t, <-firstDone)
}

func TestSnapshotGroupsByStatus(t *testing.T) {
	ctrl := newTestController(&fakePersister{},
		task("t1", models.StatusTodo),
		task("t2", models.StatusInProgress),
		task("t3", models.StatusDone),
		task("t4", models.StatusTodo),
	)

	cols := ctrl.Snapshot()
	require.Len(t, cols.Todo, 2)
	require.Len(t, cols.InProgress, 1)
	require.Len(t, cols.Done, 1)
	assert.Equal(t, "t1", cols.Todo[0].ID)
	assert.Equal(t, "t4", cols.Todo[1].ID)
}

func TestSnapshotReturnsCopies(t *testing.T) {
	ctrl := newTestController(&fakePersister{}, task("t1", models.StatusTodo))

	cols := ctrl.Snapshot()
	cols.Todo[0].Status = models.StatusDone

	again := ctrl.Snapshot()
	assert.Equal(t, models.StatusTodo, again.Todo[0].Status)
}

func TestAddPutsTaskOnBoard(t *testing.T) {
	ctrl := newTestController(&fakePersister{})
	ctrl.Add(task("t1", models.StatusTodo))

	cols := ctrl.Snapshot()
	require.Len(t, cols.Todo, 1)
	assert.Equal(t, "t1", cols.Todo[0].ID)
}
