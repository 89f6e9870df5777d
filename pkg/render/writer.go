package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/store"
)

// Format selects the Writer output encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat parses a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// LineFunc formats one root of a view as a single text line.
type LineFunc func(root any) string

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithFormat sets the output format. Default is text.
func WithFormat(f Format) WriterOption {
	return func(w *Writer) { w.format = f }
}

// WithFilter keeps only the roots for which the boolean expression holds.
// The fields of each root are the expression variables, e.g.
// `len(authors) > 1` or `title contains "Go"`. Roots that are still bare ids
// never match.
func WithFilter(src string) WriterOption {
	return func(w *Writer) { w.filterSrc = src }
}

// WithLineFunc sets the text formatter. Default prints compact JSON.
func WithLineFunc(fn LineFunc) WriterOption {
	return func(w *Writer) {
		if fn != nil {
			w.line = fn
		}
	}
}

// WithWriterLogger sets the logger used for write failures during Render.
func WithWriterLogger(log *slog.Logger) WriterOption {
	return func(w *Writer) {
		if log != nil {
			w.log = log
		}
	}
}

// Writer is a store.Target printing each view to an io.Writer.
type Writer struct {
	mu        sync.Mutex
	out       io.Writer
	format    Format
	filterSrc string
	filter    *vm.Program
	line      LineFunc
	log       *slog.Logger
	frames    int
}

// NewWriter creates a Writer. It fails when the filter does not compile or
// the format is unknown.
func NewWriter(out io.Writer, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		out:    out,
		format: FormatText,
		line:   JSONLine,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if _, err := ParseFormat(string(w.format)); err != nil {
		return nil, err
	}
	if w.filterSrc != "" {
		program, err := expr.Compile(w.filterSrc, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("compile filter %q: %w", w.filterSrc, err)
		}
		w.filter = program
	}
	return w, nil
}

// Render writes the view carried by props.
func (w *Writer) Render(props store.Props) {
	if err := w.WriteView(props.RootData); err != nil {
		w.log.Warn("render write failed", "format", w.format, "error", err)
	}
}

// WriteView filters and writes one view.
func (w *Writer) WriteView(roots []any) error {
	roots, err := w.apply(roots)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	defer func() { w.frames++ }()

	switch Format(strings.ToLower(string(w.format))) {
	case FormatJSON:
		data, err := json.MarshalIndent(roots, "", "  ")
		if err != nil {
			return fmt.Errorf("encode view: %w", err)
		}
		_, err = fmt.Fprintf(w.out, "%s\n", data)
		return err
	case FormatYAML, "yml":
		data, err := yaml.Marshal(roots)
		if err != nil {
			return fmt.Errorf("encode view: %w", err)
		}
		if w.frames > 0 {
			if _, err := io.WriteString(w.out, "---\n"); err != nil {
				return err
			}
		}
		_, err = w.out.Write(data)
		return err
	default:
		if w.frames > 0 {
			if _, err := io.WriteString(w.out, "\n"); err != nil {
				return err
			}
		}
		var b strings.Builder
		for _, root := range roots {
			b.WriteString(w.line(root))
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w.out, b.String())
		return err
	}
}

// apply runs the filter over roots.
func (w *Writer) apply(roots []any) ([]any, error) {
	if w.filter == nil {
		return roots, nil
	}
	kept := make([]any, 0, len(roots))
	for _, root := range roots {
		env, ok := root.(map[string]any)
		if !ok {
			continue
		}
		out, err := expr.Run(w.filter, env)
		if err != nil {
			return nil, fmt.Errorf("eval filter %q: %w", w.filterSrc, err)
		}
		if match, _ := out.(bool); match {
			kept = append(kept, root)
		}
	}
	return kept, nil
}

// JSONLine prints a root as compact JSON.
func JSONLine(root any) string {
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Sprintf("%v", root)
	}
	return string(data)
}
