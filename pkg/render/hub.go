package render

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/coder/websocket"

	"github.com/getmockd/lazystore/pkg/httputil"
	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/store"
)

// Hub defaults.
const (
	DefaultSubscriberBuffer = 16
	DefaultWriteTimeout     = 5 * time.Second
)

// Frame is one render as sent to subscribers.
type Frame struct {
	Seq   uint64         `json:"seq"`
	Roots []any          `json:"roots"`
	Extra map[string]any `json:"extra,omitempty"`
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(log *slog.Logger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithSubscriberBuffer sets how many frames may queue per subscriber before
// it is disconnected.
func WithSubscriberBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// Hub is a store.Target that broadcasts every render over WebSockets.
//
// Routes:
//
//	GET /ws        subscribe; the latest frame is sent first
//	GET /snapshot  latest frame as JSON, 404 before the first render
type Hub struct {
	log    *slog.Logger
	buffer int
	mux    *http.ServeMux

	mu   sync.Mutex
	subs map[*subscriber]struct{}
	last []byte
	seq  uint64

	closeOnce sync.Once
	done      chan struct{}
}

type subscriber struct {
	msgs      chan []byte
	closeSlow func()
}

// NewHub creates a Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		log:    logging.Nop(),
		buffer: DefaultSubscriberBuffer,
		mux:    http.NewServeMux(),
		subs:   make(map[*subscriber]struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("GET /ws", h.handleSubscribe)
	h.mux.HandleFunc("GET /snapshot", h.handleSnapshot)
	return h
}

// Render encodes props as the next frame and queues it for every subscriber.
// Subscribers whose queue is full are disconnected.
func (h *Hub) Render(props store.Props) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	data, err := json.Marshal(Frame{Seq: h.seq, Roots: props.RootData, Extra: props.Extra})
	if err != nil {
		h.log.Warn("hub encode failed", "seq", h.seq, "error", err)
		return
	}
	h.last = data

	for s := range h.subs {
		select {
		case s.msgs <- data:
		default:
			go s.closeSlow()
		}
	}
}

// Last returns the latest encoded frame, or nil before the first render.
func (h *Hub) Last() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Further subscriptions are refused.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Hub) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	last := h.Last()
	if last == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_rendered", "no view has been rendered yet")
		return
	}
	httputil.WriteRaw(w, http.StatusOK, last)
}

func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		httputil.WriteError(w, http.StatusServiceUnavailable, "hub_closed", "hub is closed")
		return
	default:
	}

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
		CompressionMode:    ws.CompressionDisabled,
	})
	if err != nil {
		h.log.Debug("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	err = h.subscribe(r.Context(), conn)
	switch {
	case errors.Is(err, context.Canceled),
		ws.CloseStatus(err) == ws.StatusNormalClosure,
		ws.CloseStatus(err) == ws.StatusGoingAway:
		h.log.Debug("subscriber left", "remote", r.RemoteAddr)
	case err != nil:
		h.log.Debug("subscriber dropped", "remote", r.RemoteAddr, "error", err)
	}
}

// subscribe streams frames to conn until the peer goes away, the subscriber
// falls behind or the hub closes.
func (h *Hub) subscribe(ctx context.Context, conn *ws.Conn) error {
	ctx = conn.CloseRead(ctx)

	s := &subscriber{
		msgs: make(chan []byte, h.buffer),
		closeSlow: func() {
			_ = conn.Close(ws.StatusPolicyViolation, "subscriber too slow")
		},
	}

	h.mu.Lock()
	if h.last != nil {
		s.msgs <- h.last
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("subscriber joined")

	defer func() {
		h.mu.Lock()
		delete(h.subs, s)
		h.mu.Unlock()
	}()

	for {
		select {
		case msg := <-s.msgs:
			if err := writeTimeout(ctx, conn, msg); err != nil {
				return err
			}
		case <-h.done:
			return conn.Close(ws.StatusGoingAway, "hub closed")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeTimeout(ctx context.Context, conn *ws.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultWriteTimeout)
	defer cancel()
	return conn.Write(ctx, ws.MessageText, msg)
}
