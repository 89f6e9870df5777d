package cache

import (
	"fmt"
	"slices"
	"sync"

	"github.com/getmockd/lazystore/pkg/entity"
)

// Collection is the keyed set of cached entities of one type.
type Collection struct {
	mu      sync.RWMutex
	typ     string
	idField string
	items   map[string]entity.Entity
	order   []string
}

// NewCollection creates an empty collection.
func NewCollection(typ, idField string) *Collection {
	if idField == "" {
		idField = entity.DefaultIDField
	}
	return &Collection{
		typ:     typ,
		idField: idField,
		items:   make(map[string]entity.Entity),
	}
}

// Type returns the entity type of the collection.
func (c *Collection) Type() string {
	return c.typ
}

// IDField returns the id field of the collection's type.
func (c *Collection) IDField() string {
	return c.idField
}

// Get returns a copy of the entity with the given id.
func (c *Collection) Get(id string) (entity.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return entity.Copy(e), true
}

// Has reports whether an entity with the given id is cached.
func (c *Collection) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.items[id]
	return ok
}

// Add inserts e, overwriting any entity with the same id.
func (c *Collection) Add(e entity.Entity) error {
	id, ok := entity.ID(e, c.idField)
	if !ok {
		return fmt.Errorf("add to %q: %w (field %q)", c.typ, ErrMissingID, c.idField)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = entity.Copy(e)
	return nil
}

// AddIfAbsent inserts e unless an entity with its id is already cached.
// It reports whether e was inserted.
func (c *Collection) AddIfAbsent(e entity.Entity) (bool, error) {
	id, ok := entity.ID(e, c.idField)
	if !ok {
		return false, fmt.Errorf("add to %q: %w (field %q)", c.typ, ErrMissingID, c.idField)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; exists {
		return false, nil
	}
	c.order = append(c.order, id)
	c.items[id] = entity.Copy(e)
	return true, nil
}

// Update merges fields into the cached entity and returns a copy of the
// result. The id field is never changed.
func (c *Collection) Update(id string, fields entity.Entity) (entity.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[id]
	if !ok {
		return nil, &MissingEntityError{Type: c.typ, ID: id}
	}
	entity.Merge(existing, fields, c.idField)
	return entity.Copy(existing), nil
}

// Remove deletes the entity with the given id.
func (c *Collection) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return &MissingEntityError{Type: c.typ, ID: id}
	}
	delete(c.items, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return nil
}

// Len returns the number of cached entities.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IDs returns the cached ids in insertion order.
func (c *Collection) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// All returns copies of the cached entities in insertion order.
func (c *Collection) All() []entity.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Entity, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, entity.Copy(c.items[id]))
	}
	return out
}

// Clear removes every entity and returns how many were removed.
func (c *Collection) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[string]entity.Entity)
	c.order = nil
	return n
}
