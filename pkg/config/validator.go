package config

import (
	"fmt"
	"strings"

	"github.com/getmockd/lazystore/pkg/entity"
)

// Validate checks the configuration and returns the first problem found as a
// *ConfigurationError. ApplyDefaults should run first.
func (c *Config) Validate() error {
	if c == nil {
		return &ConfigurationError{Reason: "configuration cannot be nil"}
	}
	if len(c.Types) == 0 {
		return &ConfigurationError{Field: "types", Reason: "at least one entity type is required"}
	}
	if c.Root != "" {
		if _, ok := c.Types[c.Root]; !ok {
			return &ConfigurationError{Type: c.Root, Field: "root", Reason: "root type is not declared under types"}
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigurationError{Field: "server.port", Reason: fmt.Sprintf("port %d out of range", c.Server.Port)}
	}

	roots := make(map[string]string, len(c.Types))
	for _, name := range c.TypeNames() {
		tc := c.Types[name]
		if err := tc.validate(name, c); err != nil {
			return err
		}
		if other, dup := roots[tc.RestRoot]; dup {
			return &ConfigurationError{
				Type:   name,
				Field:  "restRoot",
				Reason: fmt.Sprintf("restRoot %q already used by type %q", tc.RestRoot, other),
			}
		}
		roots[tc.RestRoot] = name
	}
	return nil
}

func (t *TypeConfig) validate(name string, c *Config) error {
	if name == "" {
		return &ConfigurationError{Field: "types", Reason: "entity type name cannot be empty"}
	}
	if t == nil {
		return &ConfigurationError{Type: name, Reason: "type configuration cannot be empty"}
	}
	if t.IDField == "" {
		return &ConfigurationError{Type: name, Field: "idField", Reason: "id field cannot be empty"}
	}
	if !strings.HasPrefix(t.RestRoot, "/") {
		return &ConfigurationError{Type: name, Field: "restRoot", Reason: "restRoot must start with /"}
	}
	if len(t.RestRoot) > 1 && strings.HasSuffix(t.RestRoot, "/") {
		return &ConfigurationError{Type: name, Field: "restRoot", Reason: "restRoot must not end with /"}
	}
	if strings.ContainsAny(t.RestRoot, "{}") {
		return &ConfigurationError{Type: name, Field: "restRoot", Reason: "restRoot cannot contain path parameters"}
	}

	for i, rel := range t.Relations {
		field := fmt.Sprintf("relations[%d]", i)
		if rel.Path == "" {
			return &ConfigurationError{Type: name, Field: field + ".path", Reason: "relation path cannot be empty"}
		}
		if rel.Target == "" {
			return &ConfigurationError{Type: name, Field: field + ".target", Reason: "relation target cannot be empty"}
		}
		if _, ok := c.Types[rel.Target]; !ok {
			return &ConfigurationError{
				Type:   name,
				Field:  field + ".target",
				Reason: fmt.Sprintf("relation target %q is not a declared type", rel.Target),
			}
		}
	}

	seen := make(map[string]int, len(t.Seed))
	for i, e := range t.Seed {
		id, ok := entity.ID(e, t.IDField)
		if !ok {
			continue
		}
		if prev, dup := seen[id]; dup {
			return &ConfigurationError{
				Type:   name,
				Field:  fmt.Sprintf("seed[%d]", i),
				Reason: fmt.Sprintf("duplicate id %q (also seed[%d])", id, prev),
			}
		}
		seen[id] = i
	}
	return nil
}
