package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
)

// ErrNotEmpty is returned by Seed when the collection already holds entities.
var ErrNotEmpty = errors.New("collection is not empty")

// Cache holds one Collection per configured entity type.
type Cache struct {
	mu          sync.RWMutex
	cfg         *config.Config
	collections map[string]*Collection
}

// New creates a cache with an empty collection for every type in cfg.
func New(cfg *config.Config) *Cache {
	c := &Cache{cfg: cfg}
	c.Reset()
	return c
}

// Reset replaces every collection with a new empty one.
func (c *Cache) Reset() {
	collections := make(map[string]*Collection, len(c.cfg.Types))
	for name := range c.cfg.Types {
		collections[name] = NewCollection(name, c.cfg.IDField(name))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections = collections
}

// Collection returns the collection of an entity type.
func (c *Cache) Collection(typ string) (*Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.collections[typ]
	if !ok {
		return nil, &config.ConfigurationError{Type: typ, Reason: "unknown entity type"}
	}
	return col, nil
}

// Get returns a copy of the entity (typ, id). Unknown types are absent.
func (c *Cache) Get(typ, id string) (entity.Entity, bool) {
	col, err := c.Collection(typ)
	if err != nil {
		return nil, false
	}
	return col.Get(id)
}

// Has reports whether (typ, id) is cached.
func (c *Cache) Has(typ, id string) bool {
	col, err := c.Collection(typ)
	if err != nil {
		return false
	}
	return col.Has(id)
}

// Add inserts or overwrites e in the collection of typ.
func (c *Cache) Add(typ string, e entity.Entity) error {
	col, err := c.Collection(typ)
	if err != nil {
		return err
	}
	return col.Add(e)
}

// Update merges fields into the cached entity (typ, id).
func (c *Cache) Update(typ, id string, fields entity.Entity) (entity.Entity, error) {
	col, err := c.Collection(typ)
	if err != nil {
		return nil, err
	}
	return col.Update(id, fields)
}

// Remove deletes (typ, id).
func (c *Cache) Remove(typ, id string) error {
	col, err := c.Collection(typ)
	if err != nil {
		return err
	}
	return col.Remove(id)
}

// Len returns the number of cached entities of typ.
func (c *Cache) Len(typ string) int {
	col, err := c.Collection(typ)
	if err != nil {
		return 0
	}
	return col.Len()
}

// Seed fills an empty collection with entities. Entities without an id are
// skipped. It fails with ErrNotEmpty when the collection already holds data.
func (c *Cache) Seed(typ string, entities []entity.Entity) error {
	col, err := c.Collection(typ)
	if err != nil {
		return err
	}
	if col.Len() > 0 {
		return fmt.Errorf("seed %q: %w", typ, ErrNotEmpty)
	}
	for _, e := range entities {
		if _, ok := entity.ID(e, col.IDField()); !ok {
			continue
		}
		if err := col.Add(e); err != nil {
			return err
		}
	}
	return nil
}
