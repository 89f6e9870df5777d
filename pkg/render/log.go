package render

import (
	"context"
	"log/slog"

	"github.com/getmockd/lazystore/pkg/store"
)

// Log is a store.Target that records a summary of each render.
type Log struct {
	Logger *slog.Logger
	Level  slog.Level
}

// Render logs the number of roots and how many are still bare ids.
func (l Log) Render(props store.Props) {
	if l.Logger == nil {
		return
	}
	bare := 0
	for _, root := range props.RootData {
		if _, ok := root.(string); ok {
			bare++
		}
	}
	l.Logger.Log(context.Background(), l.Level, "store rendered", "roots", len(props.RootData), "bare", bare)
}
