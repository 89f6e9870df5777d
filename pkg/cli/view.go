package cli

import (
	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/render"
)

var (
	viewWhere        string
	viewFetchMissing bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the stitched view of the root type",
	Long: `Load every root entity from the backend and print the stitched view.

References to entities that have not been fetched stay bare ids. With
--fetch-missing the referenced entities are fetched first, in one request
per type.

--where filters the roots with an expression over their fields.`,
	Example: `  bookstore view
  bookstore view --fetch-missing
  bookstore view --fetch-missing --where 'len(authors) > 1' -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, noRender)
		if err != nil {
			return err
		}
		if viewFetchMissing {
			if err := sess.fetchMissing(ctx); err != nil {
				return err
			}
		}
		return sess.print(cmd, render.WithFilter(viewWhere))
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewWhere, "where", "", "Only print roots matching this expression")
	viewCmd.Flags().BoolVar(&viewFetchMissing, "fetch-missing", false, "Fetch unresolved references before printing")
	rootCmd.AddCommand(viewCmd)
}
