// Package stitch denormalizes entity graphs.
//
// Entities reference each other by id. A Stitcher walks the relations declared
// in the configuration and replaces every id it can resolve with a deep copy of
// the referenced entity, recursively. Ids that cannot be resolved stay bare
// ids, in place, so sequences keep their order and length.
//
// The result is always a fresh copy: neither the input roots nor the resolver
// are ever mutated, and stitching never triggers a fetch. Running Stitch on an
// already stitched view yields the same values.
//
// A reference that would re-enter an entity already being expanded on the
// current path (a relation cycle) is left as a bare id.
package stitch
