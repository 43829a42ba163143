package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// DefaultCategory is assigned when a task is created without a category.
const DefaultCategory = "personal"

// Task is a single item in the task table. The composite (PK, SK) key is
// (owner, task id); the owner is derived from the authenticated caller and
// never serialized back to the client.
type Task struct {
	Owner       string    `dynamodbav:"PK" yaml:"owner" json:"-"`
	ID          string    `dynamodbav:"SK" yaml:"id" json:"taskId"`
	Title       string    `dynamodbav:"title" yaml:"title" json:"title"`
	Description string    `dynamodbav:"description" yaml:"description" json:"description"`
	DueDate     *string   `dynamodbav:"dueDate" yaml:"due_date,omitempty" json:"dueDate"`
	Category    *string   `dynamodbav:"category" yaml:"category,omitempty" json:"category"`
	Priority    Priority  `dynamodbav:"priority" yaml:"priority" json:"priority"`
	IsStarred   bool      `dynamodbav:"isStarred" yaml:"is_starred" json:"isStarred"`
	IsCompleted bool      `dynamodbav:"isCompleted" yaml:"is_completed" json:"isCompleted"`
	CreatedAt   time.Time `dynamodbav:"createdAt" yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `dynamodbav:"updatedAt" yaml:"updated_at" json:"updatedAt"`
}

const idPrefix = "TASK#"

// NewTaskID builds a sort-key identifier from the creation time plus a
// random suffix, unique within an owner's partition with overwhelming
// probability and never reused across retries.
func NewTaskID(now time.Time) string {
	return fmt.Sprintf("%s%s-%s", idPrefix, now.UTC().Format(time.RFC3339), ulid.Make())
}

// Changes is a normalized, allow-listed partial update. Values are already
// coerced to the canonical type of their field.
type Changes map[string]any

// updatableFields pairs every updatable field with its normalizer. Keys
// outside this table are silently ignored.
var updatableFields = map[string]func(any) any{
	"title":       normalizeText,
	"description": normalizeText,
	"category":    normalizeText,
	"dueDate":     normalizeDueDate,
	"priority":    normalizeUpdatePriority,
	"isStarred":   normalizeFlag,
	"isCompleted": normalizeFlag,
}

// NormalizeChanges filters a raw field map down to the update allow-list
// and coerces each value.
func NormalizeChanges(body map[string]any) Changes {
	changes := make(Changes, len(body))
	for key, value := range body {
		normalize, ok := updatableFields[key]
		if !ok {
			continue
		}
		changes[key] = normalize(value)
	}
	return changes
}

// Apply writes a normalized change set onto the task. updatedAt is always
// advanced, even when the change set is empty.
func (t *Task) Apply(changes Changes, updatedAt time.Time) {
	for key, value := range changes {
		switch key {
		case "title":
			t.Title = value.(string)
		case "description":
			t.Description = value.(string)
		case "category":
			s := value.(string)
			t.Category = &s
		case "dueDate":
			s := value.(string)
			t.DueDate = &s
		case "priority":
			t.Priority = value.(Priority)
		case "isStarred":
			t.IsStarred = value.(bool)
		case "isCompleted":
			t.IsCompleted = value.(bool)
		}
	}
	t.UpdatedAt = updatedAt
}

func normalizeText(v any) any {
	return strings.TrimSpace(CoerceString(v))
}

func normalizeDueDate(v any) any {
	// Opaque to the server: stored as given, format not validated.
	return CoerceString(v)
}

func normalizeFlag(v any) any {
	return CoerceBool(v)
}

// NormalizePriority lowercases the input and falls back when it is not one
// of the three known values. The fallback differs between create (low) and
// update (medium); see the handlers.
func NormalizePriority(v any, fallback Priority) Priority {
	p := Priority(strings.ToLower(CoerceString(v)))
	if !p.Valid() {
		return fallback
	}
	return p
}

func normalizeUpdatePriority(v any) any {
	return NormalizePriority(v, PriorityMedium)
}

// CoerceString renders any decoded JSON value as a string.
func CoerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

// CoerceBool applies truthiness rules to any decoded JSON value: false,
// zero, empty string and null are false, everything else is true.
func CoerceBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	default:
		return true
	}
}
