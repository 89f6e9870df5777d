package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/stateful"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock REST backend",
	Long: `Run the mock REST backend serving every configured type from memory.

Routes per type (restRoot from config, e.g. /books):
  POST   /books              create, the server assigns the id
  GET    /books              list
  GET    /books/fetch/B1,B2  fetch several by id
  GET    /books/{id}         get one
  PUT    /books/{id}         merge fields
  DELETE /books/{id}         delete

Admin routes:
  GET    /_state                      item counts and operation metrics
  POST   /_state/reset                restore the seed data
  DELETE /_state/resources/{name}     empty one resource
  GET    /health`,
	Example: `  # Serve the built-in bookstore on :3000
  bookstore serve

  # Serve a custom configuration on another port
  bookstore serve --config bookstore.yaml --port 8081`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		log := logging.For(newLogger(cmd, cfg), "backend")

		state, err := stateful.NewFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("build backend: %w", err)
		}
		srv := stateful.NewServer(state, cfg.Server,
			stateful.WithLogger(log),
			stateful.WithMetrics(stateful.NewMetricsObserver()),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			select {
			case <-srv.Ready():
				fmt.Fprintf(cmd.OutOrStdout(), "bookstore backend listening on %s (%d types)\n",
					srv.Addr(), len(cfg.Types))
			case <-ctx.Done():
			}
		}()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config, 3000)")
	rootCmd.AddCommand(serveCmd)
}
