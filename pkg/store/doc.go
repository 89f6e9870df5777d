// Package store provides a lazy object store with relational stitching.
//
// A Store owns a root set of entities of one type and a cache of every
// configured entity type. Operations mutate the cache, locally and through a
// Backend round trip, and then push a freshly stitched view of the roots to a
// Target:
//
//	s, err := store.New(cfg, restclient.New(url, cfg))
//	err = s.ResetData(roots, "books", target, nil)
//	err = s.Fetch(ctx, "authors", "AUTHORID_1")
//	s.Wait()
//
// Round trips run in background goroutines; completions are applied one at a
// time under the store lock. Mutating operations (Add, SetFields, SetField,
// Destroy, Refresh) carry a staleness token: a completion only renders when no
// newer mutation has been issued since it started. Its cache changes still
// apply. Every callback fires exactly once, on success or failure.
//
// Targets are always called outside the store lock and never receive an older
// view after a newer one. A Target may start asynchronous work from Render
// (Fetch, FetchAll, FetchUnresolved, Add, Destroy, Refresh) but must not call
// ResetData, SetFields, SetField or Render synchronously from inside Render,
// since those render before returning.
package store
