package stitch

import (
	"reflect"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
)

// Resolver looks entities up by type and id. Returned entities must be
// caller-owned copies. *cache.Cache satisfies it.
type Resolver interface {
	Get(typ, id string) (entity.Entity, bool)
}

// Stitcher replaces references with populated copies following the relation
// declarations of a configuration.
type Stitcher struct {
	cfg       *config.Config
	resolver  Resolver
	relations map[string][]relation
}

// New compiles the relation paths of cfg. A malformed path is reported as a
// *config.ConfigurationError.
func New(cfg *config.Config, resolver Resolver) (*Stitcher, error) {
	s := &Stitcher{
		cfg:       cfg,
		resolver:  resolver,
		relations: make(map[string][]relation, len(cfg.Types)),
	}
	for name, tc := range cfg.Types {
		for _, rel := range tc.Relations {
			x, err := compilePath(rel.Path)
			if err != nil {
				return nil, &config.ConfigurationError{Type: name, Field: "relations.path", Reason: err.Error()}
			}
			s.relations[name] = append(s.relations[name], relation{Relation: rel, expr: x})
		}
	}
	return s, nil
}

// Stitch returns a stitched deep copy of roots. Root entities are stitched
// with the relations of rootType; non-object roots (bare ids) are passed
// through unchanged.
func (s *Stitcher) Stitch(roots []any, rootType string) []any {
	out := make([]any, len(roots))
	idField := s.cfg.IDField(rootType)
	for i, root := range roots {
		obj, ok := root.(map[string]any)
		if !ok {
			out[i] = root
			continue
		}
		c := entity.Copy(obj)
		onPath := make(map[string]struct{})
		if id, ok := entity.ID(c, idField); ok {
			onPath[key(rootType, id)] = struct{}{}
		}
		s.stitchInto(c, rootType, onPath)
		out[i] = c
	}
	return out
}

// StitchEntity stitches a single entity of type typ.
func (s *Stitcher) StitchEntity(e entity.Entity, typ string) entity.Entity {
	out := s.Stitch([]any{e}, typ)
	obj, _ := out[0].(map[string]any)
	return obj
}

// stitchInto rewrites the relation fields of e in place. e must already be a
// private copy.
func (s *Stitcher) stitchInto(e map[string]any, typ string, onPath map[string]struct{}) {
	for i := range s.relations[typ] {
		rel := &s.relations[typ][i]
		v, ok := rel.get(e)
		if !ok {
			continue
		}

		if seq, isSeq := asSeq(v); isSeq {
			resolved := make([]any, len(seq))
			for j, elem := range seq {
				resolved[j] = s.resolveElem(elem, rel, onPath)
			}
			rel.set(e, resolved)
			continue
		}
		rel.set(e, s.resolveElem(v, rel, onPath))
	}
}

// resolveElem resolves one element of a relation field, honouring IDPath.
func (s *Stitcher) resolveElem(elem any, rel *relation, onPath map[string]struct{}) any {
	if rel.IDPath == "" {
		return s.resolveRef(elem, rel.Target, onPath)
	}

	holder, ok := elem.(map[string]any)
	if !ok {
		return elem
	}
	inner, ok := holder[rel.IDPath]
	if !ok {
		return elem
	}
	holder[rel.IDPath] = s.resolveRef(inner, rel.Target, onPath)
	return holder
}

// resolveRef resolves a bare id or populated object of type target.
func (s *Stitcher) resolveRef(ref any, target string, onPath map[string]struct{}) any {
	id, populated, ok := entity.Ref(ref, s.cfg.IDField(target))
	if !ok {
		return ref
	}

	k := key(target, id)
	if _, cycle := onPath[k]; cycle {
		return id
	}

	obj, found := s.resolver.Get(target, id)
	if !found {
		if populated == nil {
			return ref
		}
		obj = populated
	}

	onPath[k] = struct{}{}
	s.stitchInto(obj, target, onPath)
	delete(onPath, k)
	return obj
}

// asSeq reports whether v is a sequence of references and returns it as
// []any. Typed slices such as []string count; []byte does not.
func asSeq(v any) ([]any, bool) {
	switch seq := v.(type) {
	case []any:
		return seq, true
	case []string:
		out := make([]any, len(seq))
		for i, id := range seq {
			out[i] = id
		}
		return out, true
	case []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// has reports whether the resolver knows typ/id, using a cheaper membership
// check when the resolver offers one.
func (s *Stitcher) has(typ, id string) bool {
	if h, ok := s.resolver.(interface{ Has(typ, id string) bool }); ok {
		return h.Has(typ, id)
	}
	_, ok := s.resolver.Get(typ, id)
	return ok
}

func key(typ, id string) string {
	return typ + "\x00" + id
}
