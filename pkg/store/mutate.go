package store

import (
	"context"

	"github.com/getmockd/lazystore/pkg/entity"
)

// Add creates e remotely. On success the server entity is cached, its id is
// appended to the root set when typ is the root type, and cb receives the
// created entity. On failure the cache is left unchanged and cb receives a
// *RemoteError. Any id set on e is dropped: ids are assigned by the backend.
func (s *Store) Add(ctx context.Context, e entity.Entity, typ string, cb func(entity.Entity, error)) error {
	tc, err := s.cfg.Type(typ)
	if err != nil {
		return err
	}
	body := entity.Without(entity.Copy(e), tc.IDField)
	if body == nil {
		body = entity.Entity{}
	}

	s.mu.Lock()
	tok := s.issue()
	gen := s.gen
	s.mu.Unlock()

	s.async(func() {
		created, err := s.backend.Create(ctx, typ, body)
		var id string
		if err == nil {
			var ok bool
			if id, ok = entity.ID(created, tc.IDField); !ok {
				err = ErrNoServerID
			}
		}
		if err != nil {
			s.log.Warn("add failed", "type", typ, "error", err)
			callEntity(cb, nil, &RemoteError{Op: "add", Type: typ, Err: err})
			return
		}

		var f *frame
		s.mu.Lock()
		if gen == s.gen {
			_ = s.cache.Add(typ, created)
			if typ == s.rootType {
				s.rootIDs = append(s.rootIDs, id)
			}
			if s.latest(tok) {
				f = s.snapshot()
			}
		}
		s.mu.Unlock()

		s.log.Debug("added", "type", typ, "id", id, "rendered", f != nil)
		s.deliver(f)
		callEntity(cb, entity.Copy(created), nil)
	})
	return nil
}

// SetField sets a single field of a cached entity. See SetFields.
func (s *Store) SetField(ctx context.Context, field string, value any, id, typ string, cb func(entity.Entity, error)) error {
	return s.SetFields(ctx, entity.Entity{field: value}, id, typ, cb)
}

// SetFields merges fields into the cached entity (typ, id), renders the
// optimistic result right away and sends the update to the backend. The
// server entity then replaces the cached one. If the update fails and no newer
// mutation was issued meanwhile, the touched fields are rolled back. The id
// field cannot be changed.
func (s *Store) SetFields(ctx context.Context, fields entity.Entity, id, typ string, cb func(entity.Entity, error)) error {
	tc, err := s.cfg.Type(typ)
	if err != nil {
		return err
	}
	fields = entity.Without(entity.Copy(fields), tc.IDField)

	s.mu.Lock()
	prev, ok := s.cache.Get(typ, id)
	if !ok {
		s.mu.Unlock()
		return &MissingEntityError{Type: typ, ID: id}
	}
	tok := s.issue()
	gen := s.gen
	undo := make(entity.Entity, len(fields))
	var added []string
	for k := range fields {
		if v, had := prev[k]; had {
			undo[k] = v
		} else {
			added = append(added, k)
		}
	}
	if _, err := s.cache.Update(typ, id, fields); err != nil {
		s.mu.Unlock()
		return err
	}
	f := s.snapshot()
	s.mu.Unlock()
	s.deliver(f)

	s.async(func() {
		updated, err := s.backend.Update(ctx, typ, id, fields)

		var f *frame
		s.mu.Lock()
		current, cached := s.cache.Get(typ, id)
		switch {
		case gen != s.gen || !cached:
		case err != nil:
			if s.latest(tok) {
				entity.Merge(current, undo, tc.IDField)
				for _, k := range added {
					delete(current, k)
				}
				_ = s.cache.Add(typ, current)
				f = s.snapshot()
			}
		default:
			if updated == nil {
				updated = current
			}
			updated[tc.IDField] = id
			_ = s.cache.Add(typ, updated)
			if s.latest(tok) {
				f = s.snapshot()
			}
		}
		s.mu.Unlock()
		s.deliver(f)

		if err != nil {
			s.log.Warn("set failed", "type", typ, "id", id, "error", err, "rolledBack", f != nil)
			callEntity(cb, nil, &RemoteError{Op: "set", Type: typ, ID: id, Err: err})
			return
		}
		callEntity(cb, entity.Copy(updated), nil)
	})
	return nil
}

// Destroy deletes (typ, id) remotely and then drops it from the cache and the
// root set. A failed delete is not retried and leaves the cache unchanged.
func (s *Store) Destroy(ctx context.Context, id, typ string, cb func(error)) error {
	if _, err := s.cfg.Type(typ); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.cache.Has(typ, id) {
		s.mu.Unlock()
		return &MissingEntityError{Type: typ, ID: id}
	}
	tok := s.issue()
	gen := s.gen
	s.mu.Unlock()

	s.async(func() {
		if err := s.backend.Delete(ctx, typ, id); err != nil {
			s.log.Warn("destroy failed", "type", typ, "id", id, "error", err)
			callErr(cb, &RemoteError{Op: "destroy", Type: typ, ID: id, Err: err})
			return
		}

		var f *frame
		s.mu.Lock()
		if gen == s.gen {
			_ = s.cache.Remove(typ, id)
			if typ == s.rootType {
				s.rootIDs = deleteAll(s.rootIDs, id)
			}
			if s.latest(tok) {
				f = s.snapshot()
			}
		}
		s.mu.Unlock()

		s.deliver(f)
		callErr(cb, nil)
	})
	return nil
}

// Refresh re-reads (typ, id) from the backend and replaces the cached copy.
func (s *Store) Refresh(ctx context.Context, id, typ string, cb func(entity.Entity, error)) error {
	tc, err := s.cfg.Type(typ)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.cache.Has(typ, id) {
		s.mu.Unlock()
		return &MissingEntityError{Type: typ, ID: id}
	}
	tok := s.issue()
	gen := s.gen
	s.mu.Unlock()

	s.async(func() {
		fresh, err := s.backend.Get(ctx, typ, id)
		if err == nil && fresh == nil {
			err = ErrNoServerID
		}
		if err != nil {
			s.log.Warn("refresh failed", "type", typ, "id", id, "error", err)
			callEntity(cb, nil, &RemoteError{Op: "refresh", Type: typ, ID: id, Err: err})
			return
		}
		fresh[tc.IDField] = id

		var f *frame
		s.mu.Lock()
		if gen == s.gen {
			_ = s.cache.Add(typ, fresh)
			if s.latest(tok) {
				f = s.snapshot()
			}
		}
		s.mu.Unlock()

		s.deliver(f)
		callEntity(cb, entity.Copy(fresh), nil)
	})
	return nil
}

func callEntity(cb func(entity.Entity, error), e entity.Entity, err error) {
	if cb != nil {
		cb(e, err)
	}
}

func callErr(cb func(error), err error) {
	if cb != nil {
		cb(err)
	}
}

func deleteAll(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
