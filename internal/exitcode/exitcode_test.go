package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"taskflow/internal/service"
)

func TestForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"unauthorized", fmt.Errorf("fetch tasks: %w", service.ErrUnauthorized), AuthError},
		{"no session", service.ErrNoSession, AuthError},
		{"not found", fmt.Errorf("update task: %w", service.ErrNotFound), UserError},
		{"other", errors.New("connection refused"), BackendError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ForError(tt.err); got != tt.want {
				t.Errorf("ForError() = %d, want %d", got, tt.want)
			}
		})
	}
}
