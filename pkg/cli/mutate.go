package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/lazystore/pkg/cli/internal/parse"
	"github.com/getmockd/lazystore/pkg/entity"
)

var fetchMissing bool

var addCmd = &cobra.Command{
	Use:   "add <type> [key=value...]",
	Short: "Create an entity and print the resulting view",
	Long: `Create an entity through the store. The backend assigns the id; an id
given on the command line is ignored. Values that parse as JSON are decoded,
everything else is a string.`,
	Example: `  bookstore add books title="The C Programming Language" authors='[]'
  bookstore add authors name="Brian Kernighan"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ := args[0]
		fields, err := parse.Fields(args[1:])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, noRender)
		if err != nil {
			return err
		}
		ch := make(chan result, 1)
		if err := sess.store.Add(ctx, fields, typ, entityResult(ch)); err != nil {
			return err
		}
		res := <-ch
		sess.store.Wait()
		if res.err != nil {
			return res.err
		}

		id, _ := entity.ID(res.entity, sess.cfg.IDField(typ))
		fmt.Fprintf(cmd.ErrOrStderr(), "created %s %s\n", typ, id)
		return finish(cmd, sess)
	},
}

var setCmd = &cobra.Command{
	Use:   "set <type> <id> key=value...",
	Short: "Update fields of an entity and print the resulting view",
	Long: `Merge fields into an entity. The store applies the change locally
first and rolls it back if the backend rejects it.`,
	Example: `  bookstore set books BOOKID_1 title="JavaScript: The Good Parts"
  bookstore set books BOOKID_1 authors='["AUTHORID_1","AUTHORID_2"]' --fetch-missing`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, id := args[0], args[1]
		fields, err := parse.Fields(args[2:])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, noRender)
		if err != nil {
			return err
		}
		if err := sess.ensure(ctx, typ, id); err != nil {
			return err
		}
		ch := make(chan result, 1)
		if err := sess.store.SetFields(ctx, fields, id, typ, entityResult(ch)); err != nil {
			return err
		}
		res := <-ch
		sess.store.Wait()
		if res.err != nil {
			return res.err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "updated %s %s\n", typ, id)
		return finish(cmd, sess)
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <type> <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an entity and print the resulting view",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, id := args[0], args[1]

		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, noRender)
		if err != nil {
			return err
		}
		if err := sess.ensure(ctx, typ, id); err != nil {
			return err
		}
		ch := make(chan result, 1)
		if err := sess.store.Destroy(ctx, id, typ, errResult(ch)); err != nil {
			return err
		}
		res := <-ch
		sess.store.Wait()
		if res.err != nil {
			return res.err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "deleted %s %s\n", typ, id)
		return finish(cmd, sess)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <type> <id>",
	Short: "Re-read an entity from the backend and print the resulting view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, id := args[0], args[1]

		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, noRender)
		if err != nil {
			return err
		}
		if err := sess.ensure(ctx, typ, id); err != nil {
			return err
		}
		ch := make(chan result, 1)
		if err := sess.store.Refresh(ctx, id, typ, entityResult(ch)); err != nil {
			return err
		}
		res := <-ch
		sess.store.Wait()
		if res.err != nil {
			return res.err
		}
		return finish(cmd, sess)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <type> <id[,id...]>...",
	Short: "Fetch entities by id and print the resulting view",
	Long: `Fetch entities of one type in a single request. Ids already cached or
already being fetched are skipped; ids the backend does not know are
ignored.`,
	Example: `  bookstore fetch authors AUTHORID_1
  bookstore fetch authors AUTHORID_1,AUTHORID_2`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ := args[0]
		var ids []any
		for _, arg := range args[1:] {
			for _, id := range parse.SplitTrim(arg, ",") {
				ids = append(ids, id)
			}
		}

		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, noRender)
		if err != nil {
			return err
		}
		if err := sess.store.Fetch(ctx, typ, ids...); err != nil {
			return err
		}
		sess.store.Wait()

		found := 0
		for _, id := range ids {
			if _, ok := sess.store.Get(typ, id.(string)); ok {
				found++
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "fetched %d of %d %s\n", found, len(ids), typ)
		return finish(cmd, sess)
	},
}

// finish optionally resolves missing references, then prints the view.
func finish(cmd *cobra.Command, sess *session) error {
	if fetchMissing {
		if err := sess.fetchMissing(cmd.Context()); err != nil {
			return err
		}
	}
	return sess.print(cmd)
}

func init() {
	for _, c := range []*cobra.Command{addCmd, setCmd, deleteCmd, refreshCmd, fetchCmd} {
		c.Flags().BoolVar(&fetchMissing, "fetch-missing", false, "Fetch unresolved references before printing")
		rootCmd.AddCommand(c)
	}
}
