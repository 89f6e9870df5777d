package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/getmockd/lazystore/pkg/entity"
)

// NoTitle is printed for books without a title.
const NoTitle = "<No Title>"

// BookLine returns a LineFunc for book roots:
//
//	BOOKID_1  Javascript: The Good Parts  by Douglas Crockford
//	BOOKID_2  <No Title>  (1 author not loaded)
//
// Authors are read from the "authors" field. Populated authors print their
// name; bare ids are counted as not loaded.
func BookLine(idField string) LineFunc {
	return func(root any) string {
		book, ok := root.(map[string]any)
		if !ok {
			return fmt.Sprintf("%v  (not loaded)", root)
		}

		id, _ := entity.ID(book, idField)
		title, _ := book["title"].(string)
		if title == "" {
			title = NoTitle
		}

		parts := []string{id, title}
		names, missing := authorNames(book["authors"])
		if len(names) > 0 {
			parts = append(parts, "by "+strings.Join(names, ", "))
		}
		switch missing {
		case 0:
		case 1:
			parts = append(parts, "(1 author not loaded)")
		default:
			parts = append(parts, fmt.Sprintf("(%d authors not loaded)", missing))
		}
		return strings.Join(parts, "  ")
	}
}

// authorNames collects the names of populated authors and counts the rest.
func authorNames(v any) (names []string, missing int) {
	list, ok := v.([]any)
	if !ok {
		if v == nil {
			return nil, 0
		}
		list = []any{v}
	}
	for _, elem := range list {
		if name, ok := displayName(elem); ok {
			names = append(names, name)
		} else {
			missing++
		}
	}
	return names, missing
}

// displayName finds a printable name in an author element. Elements shaped
// like {"author_id": {...}} are unwrapped one level.
func displayName(elem any) (string, bool) {
	m, ok := elem.(map[string]any)
	if !ok {
		return "", false
	}
	for _, field := range []string{"name", "author_name"} {
		if s, ok := m[field].(string); ok && s != "" {
			return s, true
		}
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if inner, ok := m[k].(map[string]any); ok {
			if name, ok := displayName(inner); ok {
				return name, true
			}
		}
	}
	return "", false
}
