package googletasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"taskflow/internal/service"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func listsHandler(w http.ResponseWriter, r *http.Request) bool {
	switch {
	case strings.HasSuffix(r.URL.Path, "/users/@me/lists/@default"):
		writeJSON(w, map[string]any{"id": "L1", "title": "My Tasks"})
	case strings.HasSuffix(r.URL.Path, "/users/@me/lists"):
		writeJSON(w, map[string]any{"items": []map[string]any{
			{"id": "L1", "title": "My Tasks"},
			{"id": "L2", "title": "Groceries"},
			{"id": "L3", "title": "groceries "},
		}})
	default:
		return false
	}
	return true
}

func TestListLists_MarksDefault(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !listsHandler(w, r) {
			http.NotFound(w, r)
		}
	})

	lists, err := c.ListLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, List{ID: "L1", Title: "My Tasks", IsDefault: true}, lists[0])
	assert.False(t, lists[1].IsDefault)
}

func TestResolveList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !listsHandler(w, r) {
			http.NotFound(w, r)
		}
	})

	list, err := c.ResolveList(context.Background(), " MY TASKS ")
	require.NoError(t, err)
	assert.Equal(t, "L1", list.ID)

	_, err = c.ResolveList(context.Background(), "groceries")
	assert.EqualError(t, err, "ambiguous list name: groceries")

	_, err = c.ResolveList(context.Background(), "work")
	assert.EqualError(t, err, "list not found: work")
}

func TestListOpenTasks_FollowsPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/lists/L1/tasks") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "false", r.URL.Query().Get("showCompleted"))
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, map[string]any{
				"items": []map[string]any{
					{"id": "a", "title": " Buy milk ", "notes": "2 litres", "due": "2025-03-01T00:00:00.000Z"},
				},
				"nextPageToken": "p2",
			})
			return
		}
		writeJSON(w, map[string]any{"items": []map[string]any{{"id": "b", "title": "Call mom"}}})
	})

	got, err := c.ListOpenTasks(context.Background(), "L1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Buy milk", got[0].Title)
	assert.Equal(t, "2 litres", got[0].Notes)
	require.NotNil(t, got[0].Due)
	assert.Equal(t, "2025-03-01", got[0].Due.Format("2006-01-02"))
	assert.Nil(t, got[1].Due)
}

func TestWrapError_StatusCodes(t *testing.T) {
	status := http.StatusUnauthorized
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"bad"}}`))
	})

	_, err := c.ListOpenTasks(context.Background(), "L1")
	assert.ErrorIs(t, err, ErrTokenRevoked)

	status = http.StatusNotFound
	_, err = c.ListOpenTasks(context.Background(), "L1")
	assert.ErrorIs(t, err, service.ErrNotFound)
}
