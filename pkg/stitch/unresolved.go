package stitch

// Unresolved lists the ids still present as bare references in a stitched
// view that the resolver cannot supply, grouped by entity type. Bare-id roots
// are reported under rootType. Ids are unique per type and listed in order of
// first appearance. Ids left bare by the cycle guard are not reported.
func (s *Stitcher) Unresolved(view []any, rootType string) map[string][]string {
	u := &unresolved{s: s, ids: make(map[string][]string), seen: make(map[string]struct{})}
	for _, root := range view {
		switch r := root.(type) {
		case string:
			u.add(rootType, r)
		case map[string]any:
			s.collect(r, rootType, u, 0)
		}
	}
	return u.ids
}

type unresolved struct {
	s    *Stitcher
	ids  map[string][]string
	seen map[string]struct{}
}

func (u *unresolved) add(typ, id string) {
	if id == "" {
		return
	}
	k := key(typ, id)
	if _, ok := u.seen[k]; ok {
		return
	}
	u.seen[k] = struct{}{}
	if u.s.has(typ, id) {
		return
	}
	u.ids[typ] = append(u.ids[typ], id)
}

// maxDepth bounds the walk over views that were not produced by Stitch.
const maxDepth = 64

func (s *Stitcher) collect(e map[string]any, typ string, u *unresolved, depth int) {
	if depth > maxDepth {
		return
	}
	for i := range s.relations[typ] {
		rel := &s.relations[typ][i]
		v, ok := rel.get(e)
		if !ok {
			continue
		}
		if seq, isSeq := asSeq(v); isSeq {
			for _, elem := range seq {
				s.collectElem(elem, rel, u, depth)
			}
			continue
		}
		s.collectElem(v, rel, u, depth)
	}
}

func (s *Stitcher) collectElem(elem any, rel *relation, u *unresolved, depth int) {
	if rel.IDPath != "" {
		holder, ok := elem.(map[string]any)
		if !ok {
			return
		}
		elem = holder[rel.IDPath]
	}
	switch r := elem.(type) {
	case string:
		u.add(rel.Target, r)
	case map[string]any:
		s.collect(r, rel.Target, u, depth+1)
	}
}
