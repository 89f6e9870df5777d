package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Common CLI errors
var (
	ErrBackendUnreachable = errors.New("backend not reachable - start it with: bookstore serve")
)

// hinter is implemented by errors that carry a user-facing suggestion.
type hinter interface {
	Hint() string
}

// formatError renders err for the terminal with any suggestions attached.
func formatError(err error) string {
	var suggestions []string

	var h hinter
	if errors.As(err, &h) {
		if hint := h.Hint(); hint != "" {
			suggestions = append(suggestions, hint)
		}
	}
	if isConnectionError(err) {
		suggestions = append(suggestions,
			"Start the backend: bookstore serve",
			fmt.Sprintf("Check the backend URL (--backend %s)", backendURL))
	}

	if len(suggestions) == 0 {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(err.Error())
	b.WriteString("\n\nSuggestions:")
	for _, s := range suggestions {
		b.WriteString("\n  • ")
		b.WriteString(s)
	}
	return b.String()
}

func isConnectionError(err error) bool {
	if errors.Is(err, ErrBackendUnreachable) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
