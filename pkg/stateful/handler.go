package stateful

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/lazystore/pkg/entity"
	"github.com/getmockd/lazystore/pkg/httputil"
	"github.com/getmockd/lazystore/pkg/logging"
)

// DefaultMaxBodySize is the maximum allowed request body size for POST/PUT (1MB).
const DefaultMaxBodySize = 1 << 20

// Handler serves the REST routes of every resource in a StateStore.
// Resources registered after NewHandler are not routed.
type Handler struct {
	store       *StateStore
	metrics     *MetricsObserver
	observer    Observer
	extra       []Observer
	log         *slog.Logger
	maxBodySize int64
	mux         *http.ServeMux
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithMetrics collects operation metrics into m and reports them on GET /_state.
func WithMetrics(m *MetricsObserver) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithObserver adds an observer notified of every operation.
func WithObserver(o Observer) HandlerOption {
	return func(h *Handler) {
		if o != nil {
			h.extra = append(h.extra, o)
		}
	}
}

// WithMaxBodySize limits request bodies to n bytes.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// NewHandler creates a Handler for store.
func NewHandler(store *StateStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:       store,
		log:         logging.Nop(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}

	observers := Observers{&LogObserver{Log: h.log}}
	if h.metrics != nil {
		observers = append(observers, h.metrics)
	}
	h.observer = append(observers, h.extra...)

	h.mux = http.NewServeMux()
	h.registerRoutes(h.mux)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(mux *http.ServeMux) {
	for _, name := range h.store.List() {
		res := h.store.Get(name)
		collection, base := res.BasePath(), res.BasePath()
		if base == "/" {
			collection, base = "/{$}", ""
		}

		mux.HandleFunc("POST "+collection, h.handleCreate(res))
		mux.HandleFunc("GET "+collection, h.handleList(res))
		mux.HandleFunc("GET "+base+"/fetch/{ids}", h.handleFetch(res))
		mux.HandleFunc("GET "+base+"/{id}", h.handleGet(res))
		mux.HandleFunc("PUT "+base+"/{id}", h.handleUpdate(res))
		mux.HandleFunc("DELETE "+base+"/{id}", h.handleDelete(res))
	}

	// State management
	mux.HandleFunc("GET /_state", h.handleState)
	mux.HandleFunc("POST /_state/reset", h.handleReset)
	mux.HandleFunc("GET /_state/resources/{name}", h.handleResourceInfo)
	mux.HandleFunc("DELETE /_state/resources/{name}", h.handleClear)
}

func (h *Handler) handleCreate(res *StatefulResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		data, err := h.decodeBody(w, r)
		if err != nil {
			h.writeError(w, res.Name(), "create", err)
			return
		}

		item := res.Create(data)
		h.observer.OnCreate(res.Name(), item.ID, time.Since(start))
		httputil.WriteCreated(w, item.ToJSON(res.IDField()))
	}
}

func (h *Handler) handleList(res *StatefulResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		items := res.List()
		h.observer.OnList(res.Name(), len(items), time.Since(start))
		httputil.WriteOK(w, items)
	}
}

func (h *Handler) handleFetch(res *StatefulResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var ids []string
		for _, id := range strings.Split(r.PathValue("ids"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}

		items := res.FetchIDs(ids)
		h.observer.OnFetch(res.Name(), len(ids), len(items), time.Since(start))
		httputil.WriteOK(w, items)
	}
}

func (h *Handler) handleGet(res *StatefulResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.PathValue("id")
		item := res.Get(id)
		if item == nil {
			h.writeError(w, res.Name(), "read", &NotFoundError{Resource: res.Name(), ID: id})
			return
		}

		h.observer.OnRead(res.Name(), id, time.Since(start))
		httputil.WriteOK(w, item.ToJSON(res.IDField()))
	}
}

func (h *Handler) handleUpdate(res *StatefulResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.PathValue("id")
		data, err := h.decodeBody(w, r)
		if err != nil {
			h.writeError(w, res.Name(), "update", err)
			return
		}

		item, err := res.Update(id, data)
		if err != nil {
			h.writeError(w, res.Name(), "update", err)
			return
		}
		h.observer.OnUpdate(res.Name(), id, time.Since(start))
		httputil.WriteOK(w, item.ToJSON(res.IDField()))
	}
}

func (h *Handler) handleDelete(res *StatefulResource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.PathValue("id")
		if err := res.Delete(id); err != nil {
			h.writeError(w, res.Name(), "delete", err)
			return
		}
		h.observer.OnDelete(res.Name(), id, time.Since(start))
		httputil.WriteNoContent(w)
	}
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	overview := h.store.Overview()
	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		overview.Metrics = &snap
	}
	httputil.WriteOK(w, overview)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := r.URL.Query().Get("resource")
	resp, err := h.store.Reset(name)
	if err != nil {
		h.writeError(w, name, "reset", err)
		return
	}
	h.observer.OnReset(resp.Resources, time.Since(start))
	httputil.WriteOK(w, resp)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	n, err := h.store.ClearResource(name)
	if err != nil {
		h.writeError(w, name, "clear", err)
		return
	}
	httputil.WriteOK(w, map[string]any{"resource": name, "cleared": n})
}

func (h *Handler) handleResourceInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.ResourceInfo(r.PathValue("name"))
	if err != nil {
		h.writeError(w, r.PathValue("name"), "info", err)
		return
	}
	httputil.WriteOK(w, info)
}

// decodeBody reads a JSON object body within the size limit.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (entity.Entity, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &PayloadTooLargeError{MaxSize: tooLarge.Limit}
		}
		return nil, &ValidationError{Message: "failed to read request body: " + err.Error()}
	}

	var data entity.Entity
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ValidationError{Message: "invalid request body: " + err.Error()}
	}
	if data == nil {
		return nil, &ValidationError{Message: "request body must be a JSON object"}
	}
	return data, nil
}

// writeError writes err as a JSON ErrorResponse.
func (h *Handler) writeError(w http.ResponseWriter, resource, operation string, err error) {
	h.observer.OnError(resource, operation, err)
	resp := ToErrorResponse(err)
	httputil.WriteJSON(w, resp.StatusCode, resp)
}
