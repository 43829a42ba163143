package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

func newTask(owner, title string, createdAt time.Time) *task.Task {
	return &task.Task{
		Owner:     owner,
		ID:        task.NewTaskID(createdAt),
		Title:     title,
		Priority:  task.PriorityLow,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestYAMLRepositoryCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())
	now := time.Now().UTC()

	alice := newTask("USER#alice", "alice's task", now)
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, newTask("USER#bob", "bob's task", now)))

	tasks, err := repo.ListByOwner(ctx, "USER#alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, alice.ID, tasks[0].ID)
	assert.Equal(t, "alice's task", tasks[0].Title)
	assert.True(t, tasks[0].CreatedAt.Equal(alice.CreatedAt))
}

func TestYAMLRepositoryListEmptyOwner(t *testing.T) {
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	tasks, err := repo.ListByOwner(context.Background(), "USER#nobody")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestYAMLRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())
	now := time.Now().UTC()

	created := newTask("USER#alice", "original", now)
	require.NoError(t, repo.Create(ctx, created))

	later := now.Add(time.Minute)
	updated, err := repo.Update(ctx, "USER#alice", created.ID, task.Changes{"title": "renamed"}, later)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(now))

	// The update is durable, not just the returned value.
	tasks, err := repo.ListByOwner(ctx, "USER#alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "renamed", tasks[0].Title)
}

func TestYAMLRepositoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	_, err := repo.Update(ctx, "USER#alice", "TASK#missing", task.Changes{"title": "x"}, time.Now())
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryUpdateWrongOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	created := newTask("USER#alice", "original", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, created))

	_, err := repo.Update(ctx, "USER#bob", created.ID, task.Changes{"title": "stolen"}, time.Now())
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	tasks, err := repo.ListByOwner(ctx, "USER#alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "original", tasks[0].Title)
}

func TestYAMLRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewYAMLRepository(storage.NewMemoryStorage())

	created := newTask("USER#alice", "doomed", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, created))

	deleted, err := repo.Delete(ctx, "USER#alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "doomed", deleted.Title)

	tasks, err := repo.ListByOwner(ctx, "USER#alice")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = repo.Delete(ctx, "USER#alice", created.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryWithLocalStorage(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(store)

	created := newTask("USER#alice", "on disk", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, created))

	tasks, err := repo.ListByOwner(ctx, "USER#alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "on disk", tasks[0].Title)
}
