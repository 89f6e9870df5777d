package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/lazystore/pkg/cli/internal/output"
	"github.com/getmockd/lazystore/pkg/render"
	"github.com/getmockd/lazystore/pkg/restclient"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show item counts held by the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backendClient(cmd)
		if err != nil {
			return err
		}
		state, err := client.State(cmd.Context())
		if err != nil {
			return err
		}

		f, err := format()
		if err != nil {
			return err
		}
		if f != render.FormatText {
			return output.JSON(cmd.OutOrStdout(), state)
		}

		items, _ := state["items"].(map[string]any)
		title := cases.Title(language.English)
		tw := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(tw, "RESOURCE\tITEMS")
		for _, name := range slices.Sorted(maps.Keys(items)) {
			fmt.Fprintf(tw, "%s\t%v\n", title.String(name), items[name])
		}
		fmt.Fprintf(tw, "Total\t%v\n", state["totalItems"])
		return tw.Flush()
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the backend's seed data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := backendClient(cmd)
		if err != nil {
			return err
		}
		if err := client.ResetState(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "backend state reset")
		return nil
	},
}

func backendClient(cmd *cobra.Command) (*restclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return restclient.New(backendURL, cfg, restclient.WithLogger(newLogger(cmd, cfg))), nil
}

func init() {
	stateCmd.AddCommand(stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}
