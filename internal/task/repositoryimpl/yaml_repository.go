package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

const tasksPrefix = "tasks"

// YAMLRepository stores one YAML document per task in blob storage,
// partitioned by owner. It backs local development and tests; the mutex
// serializes the read-modify-write cycles of Update and Delete so they
// keep the atomic conditional semantics of the store contract.
type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func ownerPrefix(owner string) string {
	return fmt.Sprintf("%s/%s", tasksPrefix, url.PathEscape(owner))
}

func taskPath(owner, id string) string {
	return fmt.Sprintf("%s/%s.yaml", ownerPrefix(owner), url.PathEscape(id))
}

func (r *YAMLRepository) Create(ctx context.Context, t *task.Task) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	// Unconditional put: the freshly generated id is not expected to exist.
	if err := r.storage.Write(ctx, taskPath(t.Owner, t.ID), data); err != nil {
		return cerr.WrapStorageWriteError("task", err)
	}
	return nil
}

func (r *YAMLRepository) ListByOwner(ctx context.Context, owner string) ([]*task.Task, error) {
	paths, err := r.storage.List(ctx, ownerPrefix(owner))
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}

	var tasks []*task.Task
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var t task.Task
		if err := yaml.Unmarshal(data, &t); err != nil {
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

func (r *YAMLRepository) Update(ctx context.Context, owner, id string, changes task.Changes, updatedAt time.Time) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.read(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	t.Apply(changes, updatedAt)

	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal task: %w", err))
	}
	if err := r.storage.Write(ctx, taskPath(owner, id), data); err != nil {
		return nil, cerr.WrapStorageWriteError("task", err)
	}
	return t, nil
}

func (r *YAMLRepository) Delete(ctx context.Context, owner, id string) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.read(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := r.storage.Delete(ctx, taskPath(owner, id)); err != nil {
		return nil, wrapConditionError(err)
	}
	return t, nil
}

func (r *YAMLRepository) read(ctx context.Context, owner, id string) (*task.Task, error) {
	data, err := r.storage.Read(ctx, taskPath(owner, id))
	if err != nil {
		return nil, wrapConditionError(err)
	}
	var t task.Task
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task: %w", err))
	}
	return &t, nil
}

// wrapConditionError mirrors the conditional-write translation of the
// DynamoDB adapter: a missing path means the (owner, id) condition failed.
func wrapConditionError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return cerr.NewError(cerr.NotFound, "task not found or does not belong to user", err)
	}
	return cerr.NewError(cerr.Internal, "server error", err)
}
