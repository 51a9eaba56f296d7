package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPatch_Columns(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	patch := TaskPatch{
		Completed:   Set(true),
		Description: Null[string](),
		DueDate:     Set(due),
	}

	cols := patch.Columns()
	require.Len(t, cols, 3)
	assert.Equal(t, true, cols["completed"])
	assert.Nil(t, cols["description"])
	assert.Contains(t, cols, "description")
	assert.Equal(t, due, cols["due_date"])
	assert.NotContains(t, cols, "title")
	assert.False(t, patch.Empty())
}

func TestTaskPatch_Empty(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	assert.True(t, ProjectPatch{}.Empty())
}

func TestField_Value(t *testing.T) {
	v, ok := Set("x").Value()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = Null[string]().Value()
	assert.False(t, ok)
	assert.True(t, Null[string]().Present())
	assert.False(t, Field[string]{}.Present())
}

func TestProjectPatch_Columns(t *testing.T) {
	cols := ProjectPatch{Title: Set("Home"), Color: Set("#ef4444")}.Columns()
	assert.Equal(t, map[string]any{"title": "Home", "color": "#ef4444"}, cols)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.EqualError(t, err, "invalid priority: urgent (want low, medium or high)")
}

func TestTask_Flags(t *testing.T) {
	var task Task
	assert.False(t, task.IsCompleted())
	assert.False(t, task.IsStarred())
	assert.False(t, task.InProject("p1"))

	task.Completed = Ptr(true)
	task.Starred = Ptr(false)
	task.ProjectID = Ptr("p1")
	assert.True(t, task.IsCompleted())
	assert.False(t, task.IsStarred())
	assert.True(t, task.InProject("p1"))
}
