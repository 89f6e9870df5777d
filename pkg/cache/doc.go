// Package cache holds the locally known entities of every configured type.
//
// A Cache owns one Collection per entity type. Collections map ids to
// entities and remember insertion order. Every value handed in or out is a
// deep copy, so callers (the stitcher in particular) can never mutate cached
// state by accident.
//
// Invariant: an entity stored under key k in the collection of type T has
// ID(entity) == k.
//
// All operations are synchronous and thread-safe; writes are serialized per
// collection with a sync.RWMutex.
package cache
