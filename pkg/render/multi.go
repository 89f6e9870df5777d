package render

import "github.com/getmockd/lazystore/pkg/store"

// Multi is a store.Target that renders to several targets in order.
type Multi []store.Target

// NewMulti creates a Multi, skipping nil targets.
func NewMulti(targets ...store.Target) Multi {
	m := make(Multi, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			m = append(m, t)
		}
	}
	return m
}

// Render hands props to every target.
func (m Multi) Render(props store.Props) {
	for _, t := range m {
		t.Render(props)
	}
}
