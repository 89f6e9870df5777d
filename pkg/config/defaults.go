package config

import (
	"dario.cat/mergo"

	"github.com/getmockd/lazystore/pkg/entity"
)

// Default values.
const (
	DefaultPort         = 3000
	DefaultReadTimeout  = 30
	DefaultWriteTimeout = 30
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// ApplyDefaults fills unset fields: server settings, log settings and, per
// type, the id field and REST root. Explicit values are never overwritten.
func (c *Config) ApplyDefaults() error {
	if err := mergo.Merge(&c.Server, ServerConfig{
		Port:         DefaultPort,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}); err != nil {
		return err
	}
	if err := mergo.Merge(&c.Log, LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat}); err != nil {
		return err
	}

	for name, tc := range c.Types {
		if tc == nil {
			tc = &TypeConfig{}
			c.Types[name] = tc
		}
		if err := mergo.Merge(tc, TypeConfig{
			IDField:  entity.DefaultIDField,
			RestRoot: "/" + name,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the bookstore configuration: books referencing authors,
// seeded with one book and its author.
func Default() *Config {
	cfg := &Config{
		Root: "books",
		Types: map[string]*TypeConfig{
			"books": {
				IDPrefix: "BOOKID_",
				Relations: []Relation{
					{Path: "authors", Target: "authors"},
				},
				Seed: []entity.Entity{
					{
						"_id":     "BOOKID_1",
						"title":   "Javascript: The Good Parts",
						"authors": []any{"AUTHORID_1"},
					},
				},
			},
			"authors": {
				IDPrefix: "AUTHORID_",
				Seed: []entity.Entity{
					{
						"_id":  "AUTHORID_1",
						"name": "Douglas Crockford",
					},
				},
			},
		},
	}
	// Defaults on a literal cannot fail.
	_ = cfg.ApplyDefaults()
	return cfg
}
