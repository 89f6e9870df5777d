package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
)

// call is one blocked backend round trip, released by ok or fail.
type call struct {
	op     string
	typ    string
	id     string
	ids    []string
	fields entity.Entity
	reply  chan reply
}

type reply struct {
	e    entity.Entity
	list []entity.Entity
	err  error
}

func (c *call) ok(e entity.Entity) { c.reply <- reply{e: e} }
func (c *call) okList(list ...entity.Entity) { c.reply <- reply{list: list} }
func (c *call) fail(err error) { c.reply <- reply{err: err} }

// blockingBackend hands every round trip to the test through calls.
type blockingBackend struct {
	calls chan *call
}

func newBackend() *blockingBackend {
	return &blockingBackend{calls: make(chan *call, 32)}
}

func (b *blockingBackend) do(c *call) reply {
	c.reply = make(chan reply, 1)
	b.calls <- c
	return <-c.reply
}

func (b *blockingBackend) Create(_ context.Context, typ string, e entity.Entity) (entity.Entity, error) {
	r := b.do(&call{op: "create", typ: typ, fields: e})
	return r.e, r.err
}

func (b *blockingBackend) List(_ context.Context, typ string) ([]entity.Entity, error) {
	r := b.do(&call{op: "list", typ: typ})
	return r.list, r.err
}

func (b *blockingBackend) Get(_ context.Context, typ, id string) (entity.Entity, error) {
	r := b.do(&call{op: "get", typ: typ, id: id})
	return r.e, r.err
}

func (b *blockingBackend) FetchIDs(_ context.Context, typ string, ids []string) ([]entity.Entity, error) {
	r := b.do(&call{op: "fetch", typ: typ, ids: ids})
	return r.list, r.err
}

func (b *blockingBackend) Update(_ context.Context, typ, id string, fields entity.Entity) (entity.Entity, error) {
	r := b.do(&call{op: "update", typ: typ, id: id, fields: fields})
	return r.e, r.err
}

func (b *blockingBackend) Delete(_ context.Context, typ, id string) error {
	r := b.do(&call{op: "delete", typ: typ, id: id})
	return r.err
}

func (b *blockingBackend) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-b.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a backend call")
		return nil
	}
}

func (b *blockingBackend) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-b.calls:
		t.Fatalf("unexpected backend call %s %s", c.op, c.typ)
	case <-time.After(50 * time.Millisecond):
	}
}

// recorder is a Target remembering every frame.
type recorder struct {
	mu     sync.Mutex
	frames []Props
}

func (r *recorder) Render(p Props) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, p)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) last(t *testing.T) Props {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "authors", Target: "authors"}},
			},
			"authors": {},
		},
	}
}

func newTestStore(t *testing.T) (*Store, *blockingBackend) {
	t.Helper()
	b := newBackend()
	s, err := New(testConfig(), b)
	require.NoError(t, err)
	return s, b
}

// waitFor receives from done or fails the test.
func waitFor[T any](t *testing.T, done <-chan T) T {
	t.Helper()
	select {
	case v := <-done:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		var zero T
		return zero
	}
}

type result struct {
	e   entity.Entity
	err error
}

func entityCallback() (func(entity.Entity, error), chan result) {
	ch := make(chan result, 4)
	return func(e entity.Entity, err error) { ch <- result{e, err} }, ch
}

func errCallback() (func(error), chan error) {
	ch := make(chan error, 4)
	return func(err error) { ch <- err }, ch
}
