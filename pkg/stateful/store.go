package stateful

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/getmockd/lazystore/pkg/config"
)

// StateStore holds one StatefulResource per entity type.
type StateStore struct {
	mu        sync.RWMutex
	resources map[string]*StatefulResource
}

// NewStateStore creates an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{resources: make(map[string]*StatefulResource)}
}

// NewFromConfig creates a StateStore with one seeded resource per configured
// type.
func NewFromConfig(cfg *config.Config) (*StateStore, error) {
	s := NewStateStore()
	for _, rc := range ResourceConfigs(cfg) {
		if err := s.Register(rc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func validateResourceConfig(rc *ResourceConfig) error {
	switch {
	case rc == nil:
		return errors.New("resource config cannot be nil")
	case rc.Name == "":
		return errors.New("resource name cannot be empty")
	case rc.BasePath == "":
		return fmt.Errorf("resource %q: basePath cannot be empty", rc.Name)
	case !strings.HasPrefix(rc.BasePath, "/"):
		return fmt.Errorf("resource %q: basePath must start with /", rc.Name)
	}
	return nil
}

// Register adds a resource and loads its seed data. Names and base paths
// must be unique.
func (s *StateStore) Register(rc *ResourceConfig) error {
	if err := validateResourceConfig(rc); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.resources[rc.Name]; dup {
		return fmt.Errorf("resource %q already registered", rc.Name)
	}
	for name, other := range s.resources {
		if other.BasePath() == rc.BasePath {
			return fmt.Errorf("basePath %q already used by resource %q", rc.BasePath, name)
		}
	}

	res := NewStatefulResource(rc)
	if err := res.loadSeed(); err != nil {
		return fmt.Errorf("seed %q: %w", rc.Name, err)
	}
	s.resources[rc.Name] = res
	return nil
}

// Get returns the resource for an entity type, or nil.
func (s *StateStore) Get(name string) *StatefulResource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resources[name]
}

// lookup is Get with a NotFoundError.
func (s *StateStore) lookup(name string) (*StatefulResource, error) {
	if res := s.Get(name); res != nil {
		return res, nil
	}
	return nil, &NotFoundError{Resource: name}
}

// List returns the sorted resource names.
func (s *StateStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.resources))
}

// Reset restores the seed data of one resource, or of all of them when name
// is empty.
func (s *StateStore) Reset(name string) (*ResetResponse, error) {
	names := []string{name}
	if name == "" {
		names = s.List()
	}

	for _, n := range names {
		res, err := s.lookup(n)
		if err != nil {
			return nil, err
		}
		if err := res.Reset(); err != nil {
			return nil, err
		}
	}
	return &ResetResponse{Reset: true, Resources: names, Message: "State reset to seed data"}, nil
}

// Overview reports item counts per resource.
func (s *StateStore) Overview() *StateOverview {
	names := s.List()
	ov := &StateOverview{
		Resources:    len(names),
		ResourceList: names,
		Items:        make(map[string]int, len(names)),
	}
	for _, name := range names {
		n := s.Get(name).Count()
		ov.Items[name] = n
		ov.TotalItems += n
	}
	return ov
}

// ResourceInfo describes one resource.
func (s *StateStore) ResourceInfo(name string) (*ResourceInfo, error) {
	res, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	return res.Info(), nil
}

// ClearResource empties a resource without restoring its seed data and
// returns how many items were removed.
func (s *StateStore) ClearResource(name string) (int, error) {
	res, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	return res.Clear(), nil
}
