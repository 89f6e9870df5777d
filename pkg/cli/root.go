package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/logging"
	"github.com/getmockd/lazystore/pkg/render"
)

// DefaultBackendURL is where the mock backend listens by default.
const DefaultBackendURL = "http://localhost:3000"

var (
	// Persistent flags available to all subcommands
	configPath   string
	backendURL   string
	outputFormat string
	jsonOutput   bool
	logLevel     string
	logFormat    string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bookstore",
	Short: "bookstore is a lazy object store demo over a mock REST backend",
	Long: `bookstore serves a mock REST backend of books and authors and drives a
lazy object store against it. Books reference authors by id; views stitch the
referenced authors into each book once they have been fetched.

Configuration is read from --config (YAML or JSON). Without it the built-in
bookstore configuration is used.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (YAML or JSON)")
	pf.StringVar(&backendURL, "backend", envOr("BOOKSTORE_BACKEND", DefaultBackendURL), "Mock backend base URL")
	pf.StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json or yaml")
	pf.BoolVar(&jsonOutput, "json", false, "Output in JSON format (same as -o json)")
	pf.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", formatError(err))
		return 1
	}
	return 0
}

// loadConfig returns the --config file, or the built-in configuration.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger on stderr from the log flags, falling
// back to the config's log section when the flags were left alone.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level, format := logLevel, logFormat
	if cfg != nil {
		if !cmd.Flags().Changed("log-level") && cfg.Log.Level != "" {
			level = cfg.Log.Level
		}
		if !cmd.Flags().Changed("log-format") && cfg.Log.Format != "" {
			format = cfg.Log.Format
		}
	}
	return logging.New(logging.FromStrings(level, format, cmd.ErrOrStderr()))
}

// format resolves --output and --json.
func format() (render.Format, error) {
	if jsonOutput {
		return render.FormatJSON, nil
	}
	return render.ParseFormat(outputFormat)
}

// rootType returns the configured root type, or the first type by name.
func rootType(cfg *config.Config) (string, error) {
	if cfg.Root != "" {
		return cfg.Root, nil
	}
	names := cfg.TypeNames()
	if len(names) == 0 {
		return "", errors.New("config declares no types")
	}
	return names[0], nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
