// Package render provides store.Target implementations.
//
// A Writer prints every rendered view to an io.Writer as JSON, YAML or one
// text line per root. A Hub keeps the latest view and broadcasts each render
// to WebSocket subscribers. Log records renders through slog.
package render
