package stateful

import (
	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
)

// ResourceItem is a single record within a stateful resource.
type ResourceItem struct {
	// ID is the server-assigned identifier
	ID string
	// Data contains every other field
	Data map[string]any
}

// ResourceConfig describes one stateful resource.
type ResourceConfig struct {
	// Name is the entity type
	Name string
	// BasePath is the REST root, e.g. "/books"
	BasePath string
	// IDField is the field holding the id (default "_id")
	IDField string
	// IDPrefix prefixes generated ids; empty means UUIDs
	IDPrefix string
	// SeedData is loaded at registration and on reset
	SeedData []entity.Entity
}

// ResourceConfigs returns one ResourceConfig per type of cfg, sorted by name.
func ResourceConfigs(cfg *config.Config) []*ResourceConfig {
	names := cfg.TypeNames()
	out := make([]*ResourceConfig, 0, len(names))
	for _, name := range names {
		tc := cfg.Types[name]
		out = append(out, &ResourceConfig{
			Name:     name,
			BasePath: tc.RestRoot,
			IDField:  tc.IDField,
			IDPrefix: tc.IDPrefix,
			SeedData: tc.Seed,
		})
	}
	return out
}

// StateOverview provides information about all registered stateful resources.
type StateOverview struct {
	// Resources is the number of registered stateful resources
	Resources int `json:"resources"`
	// TotalItems is the total items across all resources
	TotalItems int `json:"totalItems"`
	// ResourceList contains names of registered resources
	ResourceList []string `json:"resourceList"`
	// Items is the item count per resource
	Items map[string]int `json:"items"`
	// Metrics is set when the server collects metrics
	Metrics *MetricsSnapshot `json:"metrics,omitempty"`
}

// ResourceInfo provides details about a specific stateful resource.
type ResourceInfo struct {
	Name      string `json:"name"`
	BasePath  string `json:"basePath"`
	ItemCount int    `json:"itemCount"`
	SeedCount int    `json:"seedCount"`
	IDField   string `json:"idField"`
	IDPrefix  string `json:"idPrefix,omitempty"`
}

// ResetResponse is returned after a state reset operation.
type ResetResponse struct {
	// Reset indicates success
	Reset bool `json:"reset"`
	// Resources lists the resources that were reset
	Resources []string `json:"resources"`
	// Message is a human-readable status message
	Message string `json:"message"`
}

// ErrorResponse is the JSON body of every backend error.
type ErrorResponse struct {
	Error      string `json:"error"`
	Resource   string `json:"resource,omitempty"`
	ID         string `json:"id,omitempty"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// ToJSON flattens the item into an entity with the id under idField.
func (item *ResourceItem) ToJSON(idField string) entity.Entity {
	result := make(entity.Entity, len(item.Data)+1)
	for k, v := range item.Data {
		result[k] = entity.CopyValue(v)
	}
	result[idField] = item.ID
	return result
}

// FromJSON creates a ResourceItem from an entity, extracting the id field.
func FromJSON(data entity.Entity, idField string) *ResourceItem {
	if idField == "" {
		idField = entity.DefaultIDField
	}

	item := &ResourceItem{Data: entity.Copy(data)}
	if item.Data == nil {
		item.Data = make(map[string]any)
	}
	if id, ok := entity.ID(data, idField); ok {
		item.ID = id
	}
	delete(item.Data, idField)
	return item
}
