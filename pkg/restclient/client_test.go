package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
	"github.com/getmockd/lazystore/pkg/stateful"
	"github.com/getmockd/lazystore/pkg/store"
)

var _ store.Backend = (*Client)(nil)

// --- Helpers ---

// mockServer creates a test server answering every request with handler.
func mockServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, New(ts.URL, config.Default())
}

func jsonHandler(t *testing.T, statusCode int, body any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if body != nil {
			if err := json.NewEncoder(w).Encode(body); err != nil {
				t.Errorf("failed to encode response: %v", err)
			}
		}
	}
}

// backend starts the real mock backend seeded with the bookstore data.
func backend(t *testing.T) *Client {
	t.Helper()
	st, err := stateful.NewFromConfig(config.Default())
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	ts := httptest.NewServer(stateful.NewHandler(st))
	t.Cleanup(ts.Close)
	return New(ts.URL, config.Default())
}

// --- New / Options ---

func TestNew(t *testing.T) {
	c := New("http://localhost:3000/", config.Default())
	if c.baseURL != "http://localhost:3000" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("default timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestNew_Options(t *testing.T) {
	c := New("http://localhost:3000", config.Default(), WithTimeout(5*time.Second))
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.httpClient.Timeout)
	}

	hc := &http.Client{}
	c = New("http://localhost:3000", config.Default(), WithHTTPClient(hc))
	if c.httpClient != hc {
		t.Error("WithHTTPClient() did not replace the client")
	}
}

// --- Request shapes ---

func TestRequestPaths(t *testing.T) {
	type seen struct{ method, path string }
	var got []seen
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, seen{r.Method, r.URL.EscapedPath()})
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			if r.URL.Path == "/books" || r.URL.Path == "/authors/fetch/A1,A 2" {
				jsonHandler(t, http.StatusOK, []any{})(w, r)
				return
			}
			jsonHandler(t, http.StatusOK, map[string]any{"_id": "X"})(w, r)
		default:
			jsonHandler(t, http.StatusOK, map[string]any{"_id": "X"})(w, r)
		}
	})
	ctx := context.Background()

	_, _ = c.Create(ctx, "books", entity.Entity{"title": "t"})
	_, _ = c.List(ctx, "books")
	_, _ = c.Get(ctx, "books", "B/1")
	_, _ = c.FetchIDs(ctx, "authors", []string{"A1", "A 2"})
	_, _ = c.Update(ctx, "books", "B1", entity.Entity{"title": "u"})
	_ = c.Delete(ctx, "books", "B1")

	want := []seen{
		{"POST", "/books"},
		{"GET", "/books"},
		{"GET", "/books/B%2F1"},
		{"GET", "/authors/fetch/A1,A%202"},
		{"PUT", "/books/B1"},
		{"DELETE", "/books/B1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("requests = %v, want %v", got, want)
	}
}

func TestUnknownType(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, http.StatusOK, nil))

	_, err := c.List(context.Background(), "films")
	var cerr *config.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Errorf("List() error = %v, want ConfigurationError", err)
	}
}

func TestFetchIDs_Empty(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	got, err := c.FetchIDs(context.Background(), "authors", nil)
	if err != nil || got != nil {
		t.Errorf("FetchIDs(nil) = %v, %v; want nil, nil", got, err)
	}
}

func TestFetchIDs_CommaInID(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	_, err := c.FetchIDs(context.Background(), "authors", []string{"A1", "A,2"})
	if !errors.Is(err, ErrInvalidID) {
		t.Errorf("FetchIDs with a comma id: err = %v, want ErrInvalidID", err)
	}
}

func TestFetchIDs_SingleObjectNormalized(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, http.StatusOK, map[string]any{"_id": "A1", "name": "Y"}))

	got, err := c.FetchIDs(context.Background(), "authors", []string{"A1"})
	if err != nil {
		t.Fatalf("FetchIDs() error = %v", err)
	}
	want := []entity.Entity{{"_id": "A1", "name": "Y"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FetchIDs() = %v, want %v", got, want)
	}
}

// --- Errors ---

func TestGet_NotFound(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, http.StatusNotFound, map[string]string{"error": "resource not found"}))

	_, err := c.Get(context.Background(), "books", "B9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantMsg string
	}{
		{
			name:    "message body",
			status:  http.StatusInternalServerError,
			body:    map[string]string{"error": "boom", "message": "backend exploded"},
			wantMsg: "boom: backend exploded",
		},
		{
			name:    "detail body",
			status:  http.StatusBadRequest,
			body:    map[string]string{"error": "invalid request", "detail": "not an object", "hint": "send an object"},
			wantMsg: "invalid request: not an object",
		},
		{
			name:    "no body",
			status:  http.StatusBadGateway,
			body:    nil,
			wantMsg: "request failed: status 502",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := mockServer(t, jsonHandler(t, tt.status, tt.body))

			_, err := c.Create(context.Background(), "books", entity.Entity{})
			var serr *StatusError
			if !errors.As(err, &serr) {
				t.Fatalf("Create() error = %v, want StatusError", err)
			}
			if serr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", serr.StatusCode, tt.status)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestContextCanceled(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, http.StatusOK, []any{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.List(ctx, "books"); !errors.Is(err, context.Canceled) {
		t.Errorf("List() error = %v, want context.Canceled", err)
	}
}

// --- Against the mock backend ---

func TestAgainstBackend(t *testing.T) {
	c := backend(t)
	ctx := context.Background()

	if err := c.Health(ctx); err == nil {
		t.Error("Health() = nil on a bare handler, want error")
	}

	created, err := c.Create(ctx, "books", entity.Entity{"title": "Z", "authors": []any{"AUTHORID_1"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created["_id"] != "BOOKID_2" {
		t.Errorf("created id = %v, want BOOKID_2", created["_id"])
	}

	list, err := c.List(ctx, "books")
	if err != nil || len(list) != 2 {
		t.Fatalf("List() = %v, %v; want 2 books", list, err)
	}

	found, err := c.FetchIDs(ctx, "authors", []string{"AUTHORID_1", "AUTHORID_9"})
	if err != nil || len(found) != 1 || found[0]["name"] != "Douglas Crockford" {
		t.Fatalf("FetchIDs() = %v, %v", found, err)
	}

	updated, err := c.Update(ctx, "books", "BOOKID_2", entity.Entity{"title": "Y"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated["title"] != "Y" || updated["authors"] == nil {
		t.Errorf("Update() = %v, want merged fields", updated)
	}

	if err := c.Delete(ctx, "books", "BOOKID_2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := c.Get(ctx, "books", "BOOKID_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, "books", "BOOKID_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}

	state, err := c.State(ctx)
	if err != nil {
		t.Fatalf("State() error = %v", err)
	}
	if state["totalItems"] != float64(2) {
		t.Errorf("totalItems = %v, want 2", state["totalItems"])
	}

	if _, err := c.Create(ctx, "books", entity.Entity{}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := c.ResetState(ctx); err != nil {
		t.Fatalf("ResetState() error = %v", err)
	}
	list, _ = c.List(ctx, "books")
	if len(list) != 1 {
		t.Errorf("books after reset = %d, want 1", len(list))
	}
}
