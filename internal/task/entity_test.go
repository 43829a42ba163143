package task

import (
	"strings"
	"testing"
	"time"
)

func TestNewTaskID(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	id := NewTaskID(now)
	if !strings.HasPrefix(id, "TASK#2026-08-30T12:00:00Z-") {
		t.Errorf("unexpected id prefix: %s", id)
	}
	if id == NewTaskID(now) {
		t.Error("expected distinct ids for the same timestamp")
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		in       any
		fallback Priority
		want     Priority
	}{
		{"low", PriorityMedium, PriorityLow},
		{"HIGH", PriorityLow, PriorityHigh},
		{"Medium", PriorityLow, PriorityMedium},
		{"urgent", PriorityLow, PriorityLow},
		{"urgent", PriorityMedium, PriorityMedium},
		{"", PriorityLow, PriorityLow},
		{nil, PriorityMedium, PriorityMedium},
		{42.0, PriorityMedium, PriorityMedium},
	}
	for _, tt := range tests {
		if got := NormalizePriority(tt.in, tt.fallback); got != tt.want {
			t.Errorf("NormalizePriority(%v, %s) = %s, want %s", tt.in, tt.fallback, got, tt.want)
		}
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"no", true},
		{"false", true},
		{0.0, false},
		{1.0, true},
		{[]any{}, true},
		{map[string]any{}, true},
	}
	for _, tt := range tests {
		if got := CoerceBool(tt.in); got != tt.want {
			t.Errorf("CoerceBool(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{42.0, "42"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := CoerceString(tt.in); got != tt.want {
			t.Errorf("CoerceString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeChanges(t *testing.T) {
	changes := NormalizeChanges(map[string]any{
		"title":       "  renamed  ",
		"priority":    "HIGH",
		"isStarred":   "yes",
		"isCompleted": 0.0,
		"owner":       "USER#mallory",
		"taskId":      "TASK#forged",
		"createdAt":   "1970-01-01T00:00:00Z",
	})

	want := Changes{
		"title":       "renamed",
		"priority":    PriorityHigh,
		"isStarred":   true,
		"isCompleted": false,
	}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d: %v", len(want), len(changes), changes)
	}
	for key, value := range want {
		if changes[key] != value {
			t.Errorf("changes[%q] = %v, want %v", key, changes[key], value)
		}
	}
}

func TestApply(t *testing.T) {
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	category := "work"
	task := &Task{
		Owner:     "USER#alice",
		ID:        "TASK#x",
		Title:     "original",
		Category:  &category,
		Priority:  PriorityHigh,
		CreatedAt: created,
		UpdatedAt: created,
	}

	task.Apply(Changes{"title": "renamed", "isCompleted": true}, updated)

	if task.Title != "renamed" {
		t.Errorf("title = %q, want renamed", task.Title)
	}
	if !task.IsCompleted {
		t.Error("expected isCompleted to be set")
	}
	if task.Priority != PriorityHigh || *task.Category != "work" {
		t.Error("untouched fields must survive")
	}
	if !task.CreatedAt.Equal(created) {
		t.Error("createdAt must not move on update")
	}
	if !task.UpdatedAt.Equal(updated) {
		t.Error("updatedAt must advance on update")
	}
}

func TestApplyEmptyChangesStillTouchesUpdatedAt(t *testing.T) {
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	task := &Task{Title: "t", CreatedAt: created, UpdatedAt: created}

	task.Apply(Changes{}, updated)

	if !task.UpdatedAt.Equal(updated) {
		t.Error("updatedAt must advance even for an empty change set")
	}
}
