// Package cli provides the command-line interface for bookstore.
//
// Commands:
//   - serve: run the mock REST backend
//   - view: print the stitched view of the root type
//   - add, set, delete, refresh, fetch: one store operation against the
//     backend, then print the resulting view
//   - watch: publish live views over WebSockets
//   - state, state reset: inspect or reset the backend
//   - config validate, config show: configuration tooling
//   - version: show version information
package cli
