package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getmockd/lazystore/pkg/entity"
)

// Config is the complete configuration of a bookstore deployment.
type Config struct {
	// Root is the entity type rendered at the top level (optional).
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// Server configures the mock backend listener.
	Server ServerConfig `json:"server" yaml:"server"`

	// Log configures structured logging.
	Log LogConfig `json:"log" yaml:"log"`

	// Types maps entity-type tags ("books", "authors") to their configuration.
	Types map[string]*TypeConfig `json:"types" yaml:"types"`
}

// ServerConfig configures the mock backend HTTP server.
type ServerConfig struct {
	// Port is the listening port.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// ReadTimeout is the request read timeout in seconds.
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`

	// WriteTimeout is the response write timeout in seconds.
	WriteTimeout int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TypeConfig is the static configuration of one entity type.
type TypeConfig struct {
	// IDField is the field holding the backend-assigned id.
	IDField string `json:"idField,omitempty" yaml:"idField,omitempty"`

	// RestRoot is the REST collection path, e.g. "/books".
	RestRoot string `json:"restRoot,omitempty" yaml:"restRoot,omitempty"`

	// IDPrefix is used by the mock backend to number new ids ("BOOKID_" ->
	// "BOOKID_2"). Empty means UUIDs.
	IDPrefix string `json:"idPrefix,omitempty" yaml:"idPrefix,omitempty"`

	// Relations declares the fields of this type that reference other entities.
	Relations []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`

	// Seed holds the entities the mock backend starts with.
	Seed []entity.Entity `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Relation declares that the value at Path references entities of Target.
type Relation struct {
	// Path is the dotted field path holding one reference or a sequence of
	// references, e.g. "authors" or "meta.editor".
	Path string `json:"path" yaml:"path"`

	// IDPath is the field inside each referencing element that holds the id,
	// for elements shaped like {"author_id": "A1"}. Empty means the element
	// itself is the reference.
	IDPath string `json:"idPath,omitempty" yaml:"idPath,omitempty"`

	// Target is the referenced entity type.
	Target string `json:"target" yaml:"target"`
}

// Type returns the configuration of an entity type.
func (c *Config) Type(name string) (*TypeConfig, error) {
	if c == nil {
		return nil, &ConfigurationError{Type: name, Reason: "no configuration"}
	}
	tc, ok := c.Types[name]
	if !ok || tc == nil {
		return nil, &ConfigurationError{Type: name, Reason: "unknown entity type"}
	}
	return tc, nil
}

// IDField returns the id field of an entity type, or entity.DefaultIDField
// for unknown types.
func (c *Config) IDField(name string) string {
	tc, err := c.Type(name)
	if err != nil || tc.IDField == "" {
		return entity.DefaultIDField
	}
	return tc.IDField
}

// TypeNames returns the configured type names in sorted order.
func (c *Config) TypeNames() []string {
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Addr returns the listen address of the mock backend.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Path returns the full REST path of an item of this type.
func (t *TypeConfig) Path(id string) string {
	return strings.TrimSuffix(t.RestRoot, "/") + "/" + id
}
