package stitch

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/lazystore/pkg/config"
)

// relation is a config.Relation with its path compiled.
type relation struct {
	config.Relation
	expr jp.Expr
}

// compilePath turns a relation path ("authors", "meta.editor" or a JSONPath
// such as "$.meta.editor") into a single-valued JSONPath expression.
func compilePath(path string) (jp.Expr, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, fmt.Errorf("empty path")
	}
	if !strings.HasPrefix(p, "$") {
		p = "$." + p
	}
	x, err := jp.ParseString(p)
	if err != nil {
		return nil, err
	}
	if len(x) < 2 {
		return nil, fmt.Errorf("path %q does not name a field", path)
	}
	for _, frag := range x[1:] {
		if _, ok := frag.(jp.Child); !ok {
			return nil, fmt.Errorf("path %q must only contain field names", path)
		}
	}
	return x, nil
}

// get returns the value at the relation path, if present.
func (r *relation) get(e map[string]any) (any, bool) {
	results := r.expr.Get(e)
	if len(results) == 0 || results[0] == nil {
		return nil, false
	}
	return results[0], true
}

// set replaces the value at the relation path.
func (r *relation) set(e map[string]any, v any) {
	// The path was read successfully from the same value, so it exists.
	_ = r.expr.Set(e, v)
}
