package service

import "time"

// Field is one slot of a partial update. The zero value is absent and
// leaves the column alone; Set writes a value; Null writes SQL NULL.
type Field[T any] struct {
	present bool
	value   *T
}

// Set returns a Field that writes v.
func Set[T any](v T) Field[T] { return Field[T]{present: true, value: &v} }

// Null returns a Field that clears the column.
func Null[T any]() Field[T] { return Field[T]{present: true} }

// Present reports whether the field is part of the update.
func (f Field[T]) Present() bool { return f.present }

// Value returns the value and whether it is non-null.
func (f Field[T]) Value() (T, bool) {
	if f.value == nil {
		var zero T
		return zero, false
	}
	return *f.value, true
}

func (f Field[T]) column() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}

// TaskPatch is a partial update of a task. Id, owner and timestamps are
// not patchable from the client.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Completed   Field[bool]
	Priority    Field[Priority]
	DueDate     Field[time.Time]
	Starred     Field[bool]
	Emoji       Field[string]
	ProjectID   Field[string]
}

// Columns returns the present fields keyed by column name. Null fields
// map to nil.
func (p TaskPatch) Columns() map[string]any {
	cols := make(map[string]any)
	put(cols, "title", p.Title)
	put(cols, "description", p.Description)
	put(cols, "completed", p.Completed)
	put(cols, "priority", p.Priority)
	put(cols, "due_date", p.DueDate)
	put(cols, "starred", p.Starred)
	put(cols, "emoji", p.Emoji)
	put(cols, "project_id", p.ProjectID)
	return cols
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool { return len(p.Columns()) == 0 }

// ProjectPatch is a partial update of a project.
type ProjectPatch struct {
	Title       Field[string]
	Description Field[string]
	Emoji       Field[string]
	Color       Field[string]
	Completed   Field[bool]
}

// Columns returns the present fields keyed by column name.
func (p ProjectPatch) Columns() map[string]any {
	cols := make(map[string]any)
	put(cols, "title", p.Title)
	put(cols, "description", p.Description)
	put(cols, "emoji", p.Emoji)
	put(cols, "color", p.Color)
	put(cols, "completed", p.Completed)
	return cols
}

// Empty reports whether the patch changes nothing.
func (p ProjectPatch) Empty() bool { return len(p.Columns()) == 0 }

func put[T any](cols map[string]any, name string, f Field[T]) {
	if f.present {
		cols[name] = f.column()
	}
}
