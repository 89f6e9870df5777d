package stateful

import (
	"fmt"
	"slices"
	"sync"

	"github.com/getmockd/lazystore/internal/id"
	"github.com/getmockd/lazystore/pkg/entity"
)

// StatefulResource represents a named collection that maintains state.
type StatefulResource struct {
	mu       sync.RWMutex
	name     string
	basePath string
	idField  string
	items    map[string]*ResourceItem
	order    []string
	seedData []entity.Entity
	ids      *id.Sequence
}

// NewStatefulResource creates a new StatefulResource from config.
func NewStatefulResource(config *ResourceConfig) *StatefulResource {
	idField := config.IDField
	if idField == "" {
		idField = entity.DefaultIDField
	}

	return &StatefulResource{
		name:     config.Name,
		basePath: config.BasePath,
		idField:  idField,
		items:    make(map[string]*ResourceItem),
		seedData: config.SeedData,
		ids:      id.NewSequence(config.IDPrefix),
	}
}

// loadSeed replaces the items with the seed data. Seed entries without an id
// get a generated one.
func (r *StatefulResource) loadSeed() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]*ResourceItem, len(r.seedData))
	r.order = make([]string, 0, len(r.seedData))
	r.ids.Reset()

	for _, data := range r.seedData {
		if itemID, ok := entity.ID(data, r.idField); ok {
			r.ids.Observe(itemID)
		}
	}

	for i, data := range r.seedData {
		item := FromJSON(data, r.idField)
		if item.ID == "" {
			item.ID = r.ids.Next()
		}
		if _, exists := r.items[item.ID]; exists {
			return fmt.Errorf("duplicate ID %q in seed data at index %d", item.ID, i)
		}
		r.items[item.ID] = item
		r.order = append(r.order, item.ID)
	}
	return nil
}

// Create adds a new item with a server-assigned id. Any id in data is
// ignored.
func (r *StatefulResource) Create(data entity.Entity) *ResourceItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := FromJSON(data, r.idField)
	item.ID = r.ids.Next()
	for r.items[item.ID] != nil {
		item.ID = r.ids.Next()
	}

	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return item
}

// Get retrieves a single item by ID.
func (r *StatefulResource) Get(id string) *ResourceItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[id]
}

// List returns every item in insertion order.
func (r *StatefulResource) List() []entity.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Entity, 0, len(r.order))
	for _, itemID := range r.order {
		out = append(out, r.items[itemID].ToJSON(r.idField))
	}
	return out
}

// FetchIDs returns the items whose id is in ids, in collection order.
// Unknown ids are skipped.
func (r *StatefulResource) FetchIDs(ids []string) []entity.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Entity, 0, len(ids))
	for _, itemID := range r.order {
		if slices.Contains(ids, itemID) {
			out = append(out, r.items[itemID].ToJSON(r.idField))
		}
	}
	return out
}

// Update merges data into an existing item. The id cannot change.
func (r *StatefulResource) Update(id string, data entity.Entity) (*ResourceItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok {
		return nil, &NotFoundError{Resource: r.name, ID: id}
	}

	merged := &ResourceItem{ID: id, Data: entity.Copy(existing.Data)}
	entity.Merge(merged.Data, data, r.idField)
	r.items[id] = merged
	return merged, nil
}

// Delete removes an item by ID.
func (r *StatefulResource) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return &NotFoundError{Resource: r.name, ID: id}
	}

	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

// Reset restores the resource to its seed data state.
func (r *StatefulResource) Reset() error {
	return r.loadSeed()
}

// Clear removes all items but keeps the resource registered (does not restore seed data).
func (r *StatefulResource) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.items)
	r.items = make(map[string]*ResourceItem)
	r.order = nil
	return count
}

// Count returns the number of items in the resource.
func (r *StatefulResource) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Info returns information about this resource.
func (r *StatefulResource) Info() *ResourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &ResourceInfo{
		Name:      r.name,
		BasePath:  r.basePath,
		ItemCount: len(r.items),
		SeedCount: len(r.seedData),
		IDField:   r.idField,
		IDPrefix:  r.ids.Prefix(),
	}
}

// Name returns the resource name.
func (r *StatefulResource) Name() string {
	return r.name
}

// BasePath returns the resource base path.
func (r *StatefulResource) BasePath() string {
	return r.basePath
}

// IDField returns the field holding item ids.
func (r *StatefulResource) IDField() string {
	return r.idField
}
