// Package stateful provides the in-memory mock REST backend for entity
// collections.
//
// Every configured entity type becomes a StatefulResource served under its
// REST root. Data lives for the lifetime of the process only; there is no
// persistence and no schema validation.
//
// Routes, per resource:
//
//	POST   <root>              create; the server assigns the id
//	GET    <root>              list every item
//	GET    <root>/fetch/<ids>  items matching any of the comma-separated ids
//	GET    <root>/<id>         one item
//	PUT    <root>/<id>         merge fields into an item
//	DELETE <root>/<id>         remove an item
//
// and for the whole store:
//
//	GET    /_state                   counts and operation metrics
//	POST   /_state/reset[?resource=]  restore seed data
//	GET    /_state/resources/<name>  one resource's settings and counts
//	DELETE /_state/resources/<name>  empty one resource
//
// Ids are <idPrefix><n> when the type configures a prefix, UUIDs otherwise.
// Seed ids are taken into account so generated ids never collide with them.
//
// Thread Safety:
//
// All operations are thread-safe using sync.RWMutex at both the store and
// resource level.
//
// Usage:
//
//	store, err := stateful.NewFromConfig(config.Default())
//	srv := stateful.NewServer(store, cfg.Server)
//	err = srv.ListenAndServe(ctx)
package stateful
