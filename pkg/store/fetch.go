package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getmockd/lazystore/pkg/entity"
)

// Fetch loads the entities of typ referenced by refs. A ref is an id string,
// a []string, or a []any mixing ids and populated objects; objects are
// skipped. Ids that are cached, already pending or repeated are dropped; the
// rest are requested in one FetchIDs call. Nothing happens when no id is
// left.
//
// On success the returned entities are cached and the view re-rendered. On
// failure the ids are released so a later Fetch can retry them. An id
// containing a comma cannot be batched and fails the call with ErrInvalidID
// before anything is requested.
func (s *Store) Fetch(ctx context.Context, typ string, refs ...any) error {
	if _, err := s.cfg.Type(typ); err != nil {
		return err
	}
	ids := flattenRefs(refs)
	for _, id := range ids {
		if strings.Contains(id, ",") {
			return fmt.Errorf("%w: %q contains a comma", ErrInvalidID, id)
		}
	}

	s.mu.Lock()
	pending := s.pending[typ]
	if pending == nil {
		pending = make(map[string]struct{})
		s.pending[typ] = pending
	}
	batch := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, busy := pending[id]; busy || s.cache.Has(typ, id) {
			continue
		}
		pending[id] = struct{}{}
		batch = append(batch, id)
	}
	gen := s.gen
	s.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	s.log.Debug("fetching", "type", typ, "ids", batch)

	s.async(func() {
		found, err := s.backend.FetchIDs(ctx, typ, batch)

		var f *frame
		s.mu.Lock()
		if gen == s.gen {
			for _, id := range batch {
				delete(pending, id)
			}
			if err == nil {
				idField := s.cfg.IDField(typ)
				for _, e := range found {
					if _, ok := entity.ID(e, idField); ok {
						_ = s.cache.Add(typ, e)
					}
				}
				f = s.snapshot()
			}
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Warn("fetch failed", "type", typ, "ids", batch, "error", err)
			return
		}
		s.log.Debug("fetched", "type", typ, "requested", len(batch), "found", len(found))
		s.deliver(f)
	})
	return nil
}

// FetchAll loads every entity of typ once. Concurrent calls share a single
// List round trip, and after one success further calls complete immediately
// until the next ResetData. Entities already cached are kept as they are so
// local edits survive. cb is called exactly once per call.
func (s *Store) FetchAll(ctx context.Context, typ string, cb func(error)) error {
	if _, err := s.cfg.Type(typ); err != nil {
		return err
	}

	s.mu.Lock()
	done := s.fetchedAll[typ]
	gen := s.gen
	s.mu.Unlock()

	if done {
		callErr(cb, nil)
		return nil
	}

	ch := s.group.DoChan(fmt.Sprintf("%d/%s", gen, typ), func() (any, error) {
		s.mu.Lock()
		skip := gen != s.gen || s.fetchedAll[typ]
		s.mu.Unlock()
		if skip {
			return 0, nil
		}

		list, err := s.backend.List(ctx, typ)
		if err != nil {
			return nil, err
		}

		var f *frame
		merged := 0
		s.mu.Lock()
		if gen == s.gen {
			col, cerr := s.cache.Collection(typ)
			if cerr != nil {
				s.mu.Unlock()
				return nil, cerr
			}
			for _, e := range list {
				if added, _ := col.AddIfAbsent(e); added {
					merged++
				}
			}
			s.fetchedAll[typ] = true
			f = s.snapshot()
		}
		s.mu.Unlock()

		s.log.Debug("fetched all", "type", typ, "listed", len(list), "merged", merged)
		s.deliver(f)
		return merged, nil
	})

	s.async(func() {
		res := <-ch
		if res.Err != nil {
			s.log.Warn("fetch all failed", "type", typ, "error", res.Err)
			callErr(cb, &RemoteError{Op: "fetchAll", Type: typ, Err: res.Err})
			return
		}
		callErr(cb, nil)
	})
	return nil
}

// FetchUnresolved fetches every id still bare in the current view, one
// batched Fetch per entity type.
func (s *Store) FetchUnresolved(ctx context.Context) error {
	s.mu.Lock()
	missing := s.stitcher.Unresolved(s.view(), s.rootType)
	s.mu.Unlock()

	types := make([]string, 0, len(missing))
	for typ := range missing {
		types = append(types, typ)
	}
	sort.Strings(types)

	for _, typ := range types {
		ids := missing[typ]
		if err := s.Fetch(ctx, typ, ids); err != nil {
			return err
		}
	}
	return nil
}

func flattenRefs(refs []any) []string {
	var ids []string
	seen := make(map[string]struct{})
	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var walk func(v any)
	walk = func(v any) {
		switch r := v.(type) {
		case string:
			add(r)
		case []string:
			for _, id := range r {
				add(id)
			}
		case []any:
			for _, elem := range r {
				walk(elem)
			}
		}
	}
	for _, ref := range refs {
		walk(ref)
	}
	return ids
}
