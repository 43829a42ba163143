package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskdeck/taskdeck/internal/identity"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// Server exposes the four task handlers. Each handler is a pure function of
// (request, repository); there is no shared mutable state.
type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{
		repo: repo,
	}
}

type createTaskResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
	Task    *Task  `json:"task"`
}

type listTasksResponse struct {
	Message string  `json:"message"`
	Tasks   []*Task `json:"tasks"`
}

type updateTaskResponse struct {
	Message     string `json:"message"`
	TaskID      string `json:"taskId"`
	UpdatedTask *Task  `json:"updatedTask"`
}

type deleteTaskResponse struct {
	Message     string `json:"message"`
	TaskID      string `json:"taskId"`
	DeletedTask *Task  `json:"deletedTask"`
}

// CreateTask validates the candidate task, applies field defaults and
// writes a new item under a freshly generated id.
func (s *Server) CreateTask(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := decodeBody(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	title, ok := body["title"].(string)
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "title is required and cannot be empty", nil)
		return
	}

	owner, err := identity.Resolve(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	now := time.Now().UTC()
	t := &Task{
		Owner:       owner,
		ID:          NewTaskID(now),
		Title:       title,
		Description: strings.TrimSpace(CoerceString(body["description"])),
		DueDate:     optionalString(body, "dueDate"),
		Category:    createCategory(body),
		Priority:    createPriority(body),
		IsStarred:   CoerceBool(body["isStarred"]),
		IsCompleted: CoerceBool(body["isCompleted"]),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, http.StatusCreated, createTaskResponse{
		Message: "Task created successfully",
		TaskID:  t.ID,
		Task:    t,
	})
}

// ListTasks returns every task in the caller's partition, newest first.
func (s *Server) ListTasks(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := identity.Resolve(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	tasks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	// Newest first; the stable sort keeps store order for equal timestamps.
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if tasks == nil {
		tasks = []*Task{}
	}

	cerr.SetJSONResponse(ctx, http.StatusOK, listTasksResponse{
		Message: fmt.Sprintf("Found %d tasks", len(tasks)),
		Tasks:   tasks,
	})
}

// UpdateTask applies an allow-listed partial update to one task,
// conditioned on the caller owning it.
func (s *Server) UpdateTask(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID := pathTaskID(r)
	if taskID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId is required in path", nil)
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if len(body) == 0 {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "no fields provided to update", nil)
		return
	}

	owner, err := identity.Resolve(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	updated, err := s.repo.Update(ctx, owner, taskID, NormalizeChanges(body), time.Now().UTC())
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, http.StatusOK, updateTaskResponse{
		Message:     "Task updated successfully",
		TaskID:      taskID,
		UpdatedTask: updated,
	})
}

// DeleteTask removes one task, conditioned on the caller owning it, and
// returns the removed value.
func (s *Server) DeleteTask(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID := pathTaskID(r)
	if taskID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId is required in path", nil)
		return
	}

	owner, err := identity.Resolve(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	deleted, err := s.repo.Delete(ctx, owner, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, http.StatusOK, deleteTaskResponse{
		Message:     "Task deleted successfully",
		TaskID:      taskID,
		DeletedTask: deleted,
	})
}

// pathTaskID extracts the taskId route parameter. Ids contain characters
// like '#' that arrive percent-encoded, and chi routes on the raw path, so
// the parameter is unescaped here.
func pathTaskID(r *http.Request) string {
	taskID := chi.URLParam(r, "taskId")
	if decoded, err := url.PathUnescape(taskID); err == nil {
		taskID = decoded
	}
	return taskID
}

// decodeBody parses the request body as a JSON object. A missing or empty
// body decodes to an empty map; malformed JSON is a validation failure.
func decodeBody(r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	if r.Body == nil {
		return body, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, cerr.NewError(cerr.InvalidArgument, "request body must be a JSON object", err)
	}
	return body, nil
}

func optionalString(body map[string]any, key string) *string {
	v, ok := body[key]
	if !ok || v == nil {
		return nil
	}
	s := CoerceString(v)
	return &s
}

// createCategory defaults to "personal" and normalizes an explicitly empty
// category to absent.
func createCategory(body map[string]any) *string {
	category := DefaultCategory
	if v, ok := body["category"]; ok {
		category = strings.TrimSpace(CoerceString(v))
	}
	if category == "" {
		return nil
	}
	return &category
}

// createPriority defaults to low, which is also the fallback for values
// outside the enum. Updates fall back to medium instead.
func createPriority(body map[string]any) Priority {
	v, ok := body["priority"]
	if !ok {
		return PriorityLow
	}
	return NormalizePriority(v, PriorityLow)
}
