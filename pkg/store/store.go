package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/getmockd/lazystore/pkg/cache"
	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/stitch"
)

// Backend is the remote collaborator holding the authoritative entities.
type Backend interface {
	// Create stores a new entity and returns it with a server-assigned id.
	Create(ctx context.Context, typ string, e entity.Entity) (entity.Entity, error)
	// List returns every entity of a type.
	List(ctx context.Context, typ string) ([]entity.Entity, error)
	// Get returns one entity.
	Get(ctx context.Context, typ, id string) (entity.Entity, error)
	// FetchIDs returns the entities matching any of ids. Unknown ids are
	// omitted.
	FetchIDs(ctx context.Context, typ string, ids []string) ([]entity.Entity, error)
	// Update merges fields into an entity and returns the result.
	Update(ctx context.Context, typ, id string, fields entity.Entity) (entity.Entity, error)
	// Delete removes an entity.
	Delete(ctx context.Context, typ, id string) error
}

// Props is handed to a Target on every render.
type Props struct {
	// RootData is the stitched view of the root set.
	RootData []any
	// Store lets the target trigger further operations.
	Store *Store
	// Extra carries the additional props given to ResetData.
	Extra map[string]any
}

// Target receives rendered views.
type Target interface {
	Render(props Props)
}

// TargetFunc adapts a function to the Target interface.
type TargetFunc func(Props)

// Render calls f(props).
func (f TargetFunc) Render(props Props) { f(props) }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Store is a lazy object store bound to a Backend.
type Store struct {
	cfg      *config.Config
	backend  Backend
	log      *slog.Logger
	cache    *cache.Cache
	stitcher *stitch.Stitcher
	group    singleflight.Group
	wg       sync.WaitGroup

	mu         sync.Mutex
	gen        uint64
	lastIssued uint64
	renderSeq  uint64
	rootType   string
	rootIDs    []string
	target     Target
	extra      map[string]any
	pending    map[string]map[string]struct{}
	fetchedAll map[string]bool

	renderMu   sync.Mutex
	rendered   uint64
	queued     *frame
	delivering bool
}

// New creates a store for cfg. Missing defaults are filled in; an invalid
// configuration is reported as a *config.ConfigurationError.
func New(cfg *config.Config, backend Backend, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, &config.ConfigurationError{Reason: "configuration cannot be nil"}
	}
	if backend == nil {
		return nil, &config.ConfigurationError{Field: "backend", Reason: "backend cannot be nil"}
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cache.New(cfg)
	st, err := stitch.New(cfg, c)
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:        cfg,
		backend:    backend,
		log:        logging.Nop(),
		cache:      c,
		stitcher:   st,
		rootType:   cfg.Root,
		pending:    make(map[string]map[string]struct{}),
		fetchedAll: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ResetData reinitializes every cache, seeds the root type's cache with the
// full entities in roots and renders the first view to target. Bare id roots
// are kept in the root set but not seeded. Round trips still in flight from
// before the reset no longer touch the caches.
func (s *Store) ResetData(roots []any, rootType string, target Target, extra map[string]any) error {
	if roots == nil {
		return fmt.Errorf("%w: roots cannot be nil", ErrInvalidReset)
	}
	if target == nil {
		return fmt.Errorf("%w: render target cannot be nil", ErrInvalidReset)
	}
	tc, err := s.cfg.Type(rootType)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(roots))
	seed := make([]entity.Entity, 0, len(roots))
	for i, root := range roots {
		switch r := root.(type) {
		case string:
			if r == "" {
				return fmt.Errorf("%w: root %d is an empty id", ErrInvalidReset, i)
			}
			ids = append(ids, r)
		case map[string]any:
			id, ok := entity.ID(r, tc.IDField)
			if !ok {
				return fmt.Errorf("%w: root %d has no %q field", ErrInvalidReset, i, tc.IDField)
			}
			ids = append(ids, id)
			seed = append(seed, r)
		default:
			return fmt.Errorf("%w: root %d has unsupported type %T", ErrInvalidReset, i, root)
		}
	}

	s.mu.Lock()
	s.gen++
	s.cache.Reset()
	s.pending = make(map[string]map[string]struct{})
	s.fetchedAll = make(map[string]bool)
	s.rootType = rootType
	s.rootIDs = ids
	s.target = target
	s.extra = maps.Clone(extra)
	for _, e := range seed {
		// Ids were checked above.
		_ = s.cache.Add(rootType, e)
	}
	f := s.snapshot()
	s.mu.Unlock()

	s.log.Debug("store reset", "rootType", rootType, "roots", len(ids), "seeded", len(seed))
	s.deliver(f)
	return nil
}

// SeedCollection fills the empty cache of typ with entities without
// rendering. It fails when the collection already holds entities.
func (s *Store) SeedCollection(typ string, entities []entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Seed(typ, entities)
}

// Render pushes the current view to the target. It is a no-op before the
// first ResetData.
func (s *Store) Render() {
	s.mu.Lock()
	f := s.snapshot()
	s.mu.Unlock()
	s.deliver(f)
}

// View returns the current stitched view of the root set.
func (s *Store) View() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Get returns a copy of a cached entity.
func (s *Store) Get(typ, id string) (entity.Entity, bool) {
	return s.cache.Get(typ, id)
}

// RootType returns the root entity type.
func (s *Store) RootType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootType
}

// RootIDs returns the ordered root ids.
func (s *Store) RootIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rootIDs)
}

// Pending returns the sorted ids of typ awaiting a fetch.
func (s *Store) Pending(typ string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := slices.Collect(maps.Keys(s.pending[typ]))
	slices.Sort(ids)
	return ids
}

// FetchedAll reports whether a full fetch of typ completed since the last
// reset.
func (s *Store) FetchedAll(typ string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAll[typ]
}

// Wait blocks until every round trip started so far has completed and its
// callbacks have returned.
func (s *Store) Wait() {
	s.wg.Wait()
}

// issue starts a mutation and returns its staleness token. Must be called
// with s.mu held.
func (s *Store) issue() uint64 {
	s.lastIssued++
	return s.lastIssued
}

// latest reports whether tok is still the most recently issued token. Must be
// called with s.mu held.
func (s *Store) latest(tok uint64) bool {
	return tok == s.lastIssued
}

func (s *Store) async(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// view stitches the root set. Must be called with s.mu held.
func (s *Store) view() []any {
	roots := make([]any, len(s.rootIDs))
	for i, id := range s.rootIDs {
		if e, ok := s.cache.Get(s.rootType, id); ok {
			roots[i] = e
		} else {
			roots[i] = id
		}
	}
	return s.stitcher.Stitch(roots, s.rootType)
}

// frame is one computed render.
type frame struct {
	seq    uint64
	target Target
	props  Props
}

// snapshot computes the next frame, or nil when there is no target. Must be
// called with s.mu held.
func (s *Store) snapshot() *frame {
	if s.target == nil {
		return nil
	}
	s.renderSeq++
	return &frame{
		seq:    s.renderSeq,
		target: s.target,
		props: Props{
			RootData: s.view(),
			Store:    s,
			Extra:    maps.Clone(s.extra),
		},
	}
}

// deliver hands f to its target unless a newer frame was delivered already.
// One goroutine at a time owns delivery and drains the latest queued frame
// after each Render returns, so a target may call back into the store.
func (s *Store) deliver(f *frame) {
	if f == nil {
		return
	}
	s.renderMu.Lock()
	if f.seq <= s.rendered || (s.queued != nil && f.seq <= s.queued.seq) {
		s.renderMu.Unlock()
		return
	}
	s.queued = f
	if s.delivering {
		s.renderMu.Unlock()
		return
	}
	s.delivering = true
	for s.queued != nil {
		next := s.queued
		s.queued = nil
		if next.seq <= s.rendered {
			continue
		}
		s.rendered = next.seq
		s.renderMu.Unlock()
		next.target.Render(next.props)
		s.renderMu.Lock()
	}
	s.delivering = false
	s.renderMu.Unlock()
}
