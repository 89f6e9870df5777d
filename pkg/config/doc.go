// Package config provides the configuration types shared by the object store,
// the backend client and the mock backend.
//
// A Config maps entity-type tags to a TypeConfig:
//   - IDField: the field holding the backend-assigned id (default "_id")
//   - RestRoot: the REST collection path (default "/<type>")
//   - IDPrefix: prefix for ids generated by the mock backend
//   - Relations: fields that reference entities of another type
//   - Seed: entities the mock backend starts with
//
// File-based Configuration:
//
//	cfg, err := config.LoadFromFile("bookstore.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// YAML (.yaml, .yml) and JSON are supported:
//
//	root: books
//	types:
//	  books:
//	    idPrefix: BOOKID_
//	    relations:
//	      - path: authors
//	        target: authors
//	  authors:
//	    idPrefix: AUTHORID_
//
// Loaded configurations have defaults applied and are validated; invalid
// configurations produce a *ConfigurationError.
package config
