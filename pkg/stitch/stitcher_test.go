package stitch

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
)

// mapResolver resolves from a fixed map, handing out copies.
type mapResolver map[string]map[string]entity.Entity

func (m mapResolver) Get(typ, id string) (entity.Entity, bool) {
	e, ok := m[typ][id]
	if !ok {
		return nil, false
	}
	return entity.Copy(e), true
}

func bookstoreConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "authors", Target: "authors"}},
			},
			"authors": {},
		},
	}
	require.NoError(t, cfg.ApplyDefaults())
	return cfg
}

func newStitcher(t *testing.T, cfg *config.Config, r Resolver) *Stitcher {
	t.Helper()
	s, err := New(cfg, r)
	require.NoError(t, err)
	return s
}

func TestStitch_ResolvesKnownIDs(t *testing.T) {
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "Douglas Crockford"}},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	roots := []any{
		map[string]any{"_id": "B1", "title": "Javascript: The Good Parts", "authors": []any{"A1"}},
	}
	out := s.Stitch(roots, "books")

	require.Len(t, out, 1)
	book := out[0].(map[string]any)
	assert.Equal(t, []any{map[string]any{"_id": "A1", "name": "Douglas Crockford"}}, book["authors"])

	// Input untouched.
	assert.Equal(t, []any{"A1"}, roots[0].(map[string]any)["authors"])
}

func TestStitch_KeepsOrderAndLength(t *testing.T) {
	r := mapResolver{
		"authors": {
			"A1": {"_id": "A1", "name": "one"},
			"A3": {"_id": "A3", "name": "three"},
		},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	out := s.Stitch([]any{
		map[string]any{"_id": "B1", "authors": []any{"A3", "A2", "A1", "A3"}},
	}, "books")

	authors := out[0].(map[string]any)["authors"].([]any)
	require.Len(t, authors, 4)
	assert.Equal(t, "three", authors[0].(map[string]any)["name"])
	assert.Equal(t, "A2", authors[1])
	assert.Equal(t, "one", authors[2].(map[string]any)["name"])
	assert.Equal(t, "three", authors[3].(map[string]any)["name"])

	// Repeated references are independent copies.
	authors[0].(map[string]any)["name"] = "changed"
	assert.Equal(t, "three", authors[3].(map[string]any)["name"])
}

func TestStitch_PassesBareRootsThrough(t *testing.T) {
	s := newStitcher(t, bookstoreConfig(t), mapResolver{})

	out := s.Stitch([]any{"B9", map[string]any{"_id": "B1"}}, "books")
	assert.Equal(t, "B9", out[0])
	assert.Equal(t, map[string]any{"_id": "B1"}, out[1])
}

func TestStitch_Idempotent(t *testing.T) {
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "Douglas Crockford"}},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	roots := []any{
		map[string]any{"_id": "B1", "authors": []any{"A1", "A2"}},
		"B2",
	}
	once := s.Stitch(roots, "books")
	twice := s.Stitch(once, "books")
	assert.Equal(t, once, twice)
}

func TestStitch_PopulatedObjectNotInCache(t *testing.T) {
	s := newStitcher(t, bookstoreConfig(t), mapResolver{})

	author := map[string]any{"_id": "A7", "name": "local"}
	out := s.Stitch([]any{
		map[string]any{"_id": "B1", "authors": []any{author}},
	}, "books")

	authors := out[0].(map[string]any)["authors"].([]any)
	assert.Equal(t, author, authors[0])
}

func TestStitch_CacheWinsOverPopulatedObject(t *testing.T) {
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "fresh"}},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	out := s.Stitch([]any{
		map[string]any{"_id": "B1", "authors": []any{map[string]any{"_id": "A1", "name": "stale"}}},
	}, "books")

	authors := out[0].(map[string]any)["authors"].([]any)
	assert.Equal(t, "fresh", authors[0].(map[string]any)["name"])
}

func TestStitch_SingleValuedRelation(t *testing.T) {
	cfg := &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "meta.editor", Target: "authors"}},
			},
			"authors": {},
		},
	}
	require.NoError(t, cfg.ApplyDefaults())
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "ed"}},
	}
	s := newStitcher(t, cfg, r)

	out := s.Stitch([]any{
		map[string]any{"_id": "B1", "meta": map[string]any{"editor": "A1"}},
		map[string]any{"_id": "B2"},
	}, "books")

	assert.Equal(t, map[string]any{"_id": "A1", "name": "ed"}, out[0].(map[string]any)["meta"].(map[string]any)["editor"])
	assert.Equal(t, map[string]any{"_id": "B2"}, out[1])
}

func TestStitch_Cycle(t *testing.T) {
	cfg := &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "authors", Target: "authors"}},
			},
			"authors": {
				Relations: []config.Relation{{Path: "books", Target: "books"}},
			},
		},
	}
	require.NoError(t, cfg.ApplyDefaults())
	r := mapResolver{
		"books":   {"B1": {"_id": "B1", "authors": []any{"A1"}}},
		"authors": {"A1": {"_id": "A1", "books": []any{"B1", "B2"}}},
	}
	s := newStitcher(t, cfg, r)

	out := s.Stitch([]any{"B1", entity.Entity{"_id": "B1", "authors": []any{"A1"}}}, "books")

	book := out[1].(map[string]any)
	author := book["authors"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"B1", "B2"}, author["books"])

	// B1 is cached and only bare because of the cycle.
	assert.Equal(t, map[string][]string{"books": {"B2"}}, s.Unresolved(out, "books"))
}

func TestStitch_IDPath(t *testing.T) {
	cfg := &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "credits", IDPath: "who", Target: "authors"}},
			},
			"authors": {},
		},
	}
	require.NoError(t, cfg.ApplyDefaults())
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "Douglas Crockford"}},
	}
	s := newStitcher(t, cfg, r)

	out := s.Stitch([]any{
		map[string]any{"_id": "B1", "credits": []any{
			map[string]any{"role": "author", "who": "A1"},
			map[string]any{"role": "foreword", "who": "A2"},
			"loose",
		}},
	}, "books")

	credits := out[0].(map[string]any)["credits"].([]any)
	assert.Equal(t, map[string]any{"role": "author", "who": map[string]any{"_id": "A1", "name": "Douglas Crockford"}}, credits[0])
	assert.Equal(t, map[string]any{"role": "foreword", "who": "A2"}, credits[1])
	assert.Equal(t, "loose", credits[2])
}

func TestStitch_CustomIDField(t *testing.T) {
	cfg := &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "authors", Target: "authors"}},
			},
			"authors": {IDField: "uid"},
		},
	}
	require.NoError(t, cfg.ApplyDefaults())
	r := mapResolver{
		"authors": {"A1": {"uid": "A1", "name": "x"}},
	}
	s := newStitcher(t, cfg, r)

	out := s.Stitch([]any{
		map[string]any{"_id": "B1", "authors": []any{map[string]any{"uid": "A1"}}},
	}, "books")
	assert.Equal(t, []any{map[string]any{"uid": "A1", "name": "x"}}, out[0].(map[string]any)["authors"])
}

func TestNew_BadPath(t *testing.T) {
	cfg := &config.Config{
		Root: "books",
		Types: map[string]*config.TypeConfig{
			"books": {
				Relations: []config.Relation{{Path: "authors[*]", Target: "authors"}},
			},
			"authors": {},
		},
	}
	require.NoError(t, cfg.ApplyDefaults())

	_, err := New(cfg, mapResolver{})
	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "books", cerr.Type)
}

func TestStitchEntity(t *testing.T) {
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "n"}},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	got := s.StitchEntity(entity.Entity{"_id": "B1", "authors": []any{"A1"}}, "books")
	assert.Equal(t, []any{map[string]any{"_id": "A1", "name": "n"}}, got["authors"])
}

func TestUnresolved(t *testing.T) {
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "n"}},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	view := s.Stitch([]any{
		"B7",
		map[string]any{"_id": "B1", "authors": []any{"A1", "A2", "A3"}},
		map[string]any{"_id": "B2", "authors": []any{"A2"}},
	}, "books")

	got := s.Unresolved(view, "books")
	assert.Equal(t, map[string][]string{
		"books":   {"B7"},
		"authors": {"A2", "A3"},
	}, got)
}

func TestStitch_TypedSliceRelation(t *testing.T) {
	r := mapResolver{
		"authors": {"A1": {"_id": "A1", "name": "Y"}},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	roots := []any{
		map[string]any{"_id": "B1", "authors": []string{"A1", "A2"}},
	}
	view := s.Stitch(roots, "books")

	book := view[0].(map[string]any)
	assert.Equal(t, []any{map[string]any{"_id": "A1", "name": "Y"}, "A2"}, book["authors"])
	assert.Equal(t, map[string][]string{"authors": {"A2"}}, s.Unresolved(view, "books"))

	// Unstitched input is walked the same way.
	assert.Equal(t, map[string][]string{"authors": {"A2"}}, s.Unresolved(roots, "books"))
	assert.Equal(t, []string{"A1", "A2"}, roots[0].(map[string]any)["authors"])
}

func TestAsSeq(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   []any
		wantOK bool
	}{
		{name: "any slice", in: []any{"A1"}, want: []any{"A1"}, wantOK: true},
		{name: "string slice", in: []string{"A1", "A2"}, want: []any{"A1", "A2"}, wantOK: true},
		{name: "entity slice", in: []entity.Entity{{"_id": "A1"}}, want: []any{entity.Entity{"_id": "A1"}}, wantOK: true},
		{name: "bytes", in: []byte("A1"), wantOK: false},
		{name: "string", in: "A1", wantOK: false},
		{name: "nil", in: nil, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asSeq(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUnresolved_NothingMissing(t *testing.T) {
	s := newStitcher(t, bookstoreConfig(t), mapResolver{})
	assert.Empty(t, s.Unresolved([]any{map[string]any{"_id": "B1"}}, "books"))
}

func TestStitch_Golden(t *testing.T) {
	r := mapResolver{
		"authors": {
			"AUTHORID_1": {"_id": "AUTHORID_1", "name": "Douglas Crockford"},
		},
	}
	s := newStitcher(t, bookstoreConfig(t), r)

	view := s.Stitch([]any{
		map[string]any{"_id": "BOOKID_1", "title": "Javascript: The Good Parts", "authors": []any{"AUTHORID_1"}},
		map[string]any{"_id": "BOOKID_2", "title": "Untitled draft", "authors": []any{"AUTHORID_1", "AUTHORID_9"}},
		"BOOKID_3",
	}, "books")

	data, err := json.MarshalIndent(view, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "bookstore_view", data)
}
