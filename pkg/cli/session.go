package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/render"
	"github.com/getmockd/lazystore/pkg/restclient"
	"github.com/getmockd/lazystore/pkg/store"
)

// session is a store bound to the backend with the root set loaded.
type session struct {
	cfg      *config.Config
	log      *slog.Logger
	client   *restclient.Client
	store    *store.Store
	rootType string
}

// openSession loads the config, lists the root type from the backend and
// resets a store with it. Renders go to target.
func openSession(ctx context.Context, cmd *cobra.Command, target store.Target) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd, cfg)
	root, err := rootType(cfg)
	if err != nil {
		return nil, err
	}

	client := restclient.New(backendURL, cfg, restclient.WithLogger(logging.For(log, "client")))
	s, err := store.New(cfg, client, store.WithLogger(logging.For(log, "store")))
	if err != nil {
		return nil, err
	}
	sess := &session{cfg: cfg, log: log, client: client, store: s, rootType: root}
	if err := sess.reload(ctx, target); err != nil {
		return nil, err
	}
	return sess, nil
}

// reload lists the root type and resets the store with the result.
func (s *session) reload(ctx context.Context, target store.Target) error {
	list, err := s.client.List(ctx, s.rootType)
	if err != nil {
		return fmt.Errorf("list %s: %w", s.rootType, err)
	}
	roots := make([]any, len(list))
	for i, e := range list {
		roots[i] = e
	}
	return s.store.ResetData(roots, s.rootType, target, map[string]any{"backend": backendURL})
}

// ensure makes sure typ/id is cached, fetching it when needed.
func (s *session) ensure(ctx context.Context, typ, id string) error {
	if _, ok := s.store.Get(typ, id); ok {
		return nil
	}
	if err := s.store.Fetch(ctx, typ, id); err != nil {
		return err
	}
	s.store.Wait()
	if _, ok := s.store.Get(typ, id); !ok {
		return &store.MissingEntityError{Type: typ, ID: id}
	}
	return nil
}

// fetchMissing fetches every unresolved referent of the current view.
func (s *session) fetchMissing(ctx context.Context) error {
	if err := s.store.FetchUnresolved(ctx); err != nil {
		return err
	}
	s.store.Wait()
	return nil
}

// print writes the current view to the command output.
func (s *session) print(cmd *cobra.Command, opts ...render.WriterOption) error {
	f, err := format()
	if err != nil {
		return err
	}
	idField := s.cfg.IDField(s.rootType)
	opts = append([]render.WriterOption{
		render.WithFormat(f),
		render.WithLineFunc(render.BookLine(idField)),
		render.WithWriterLogger(s.log),
	}, opts...)
	w, err := render.NewWriter(cmd.OutOrStdout(), opts...)
	if err != nil {
		return err
	}
	return w.WriteView(s.store.View())
}

// noRender discards renders; commands print the final view themselves.
var noRender = store.TargetFunc(func(store.Props) {})

// result collects the outcome of one store callback.
type result struct {
	entity entity.Entity
	err    error
}

func entityResult(ch chan<- result) func(entity.Entity, error) {
	return func(e entity.Entity, err error) { ch <- result{entity: e, err: err} }
}

func errResult(ch chan<- result) func(error) {
	return func(err error) { ch <- result{err: err} }
}
