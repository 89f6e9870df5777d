package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/render"
	"github.com/getmockd/lazystore/pkg/stateful"
)

var (
	watchAddr         string
	watchRefresh      time.Duration
	watchFetchMissing bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Serve live views over WebSockets",
	Long: `Bind a store to the backend and publish every render over WebSockets.

The root set is reloaded from the backend every --refresh interval.

Routes:
  GET /ws        subscribe; the latest view is sent first
  GET /snapshot  latest view as JSON`,
	Example: `  bookstore watch --addr :8090 --refresh 2s --fetch-missing`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if watchRefresh <= 0 {
			return fmt.Errorf("--refresh must be positive, got %s", watchRefresh)
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cmd, cfg)
		hub := render.NewHub(render.WithHubLogger(logging.For(log, "hub")))
		defer hub.Close()
		target := render.NewMulti(hub, render.Log{Logger: log, Level: slog.LevelDebug})

		sess, err := openSession(ctx, cmd, target)
		if err != nil {
			return err
		}
		if watchFetchMissing {
			if err := sess.fetchMissing(ctx); err != nil {
				return err
			}
		}

		ln, err := net.Listen("tcp", watchAddr)
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: hub, ReadHeaderTimeout: 10 * time.Second}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(ln) }()
		fmt.Fprintf(cmd.OutOrStdout(), "watching %s at ws://%s/ws\n", backendURL, ln.Addr())

		ticker := time.NewTicker(watchRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sess.reload(ctx, target); err != nil {
					log.Warn("reload failed", "error", err)
					continue
				}
				if watchFetchMissing {
					if err := sess.fetchMissing(ctx); err != nil {
						log.Warn("fetch missing failed", "error", err)
					}
				}
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				hub.Close()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), stateful.ShutdownTimeout)
				defer cancel()
				sess.store.Wait()
				return srv.Shutdown(shutdownCtx)
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "localhost:8090", "Listen address for the WebSocket hub")
	watchCmd.Flags().DurationVar(&watchRefresh, "refresh", 5*time.Second, "Interval between reloads of the root set")
	watchCmd.Flags().BoolVar(&watchFetchMissing, "fetch-missing", false, "Fetch unresolved references after every reload")
	rootCmd.AddCommand(watchCmd)
}
