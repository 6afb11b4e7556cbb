package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	catauthz "github.com/pthm/catauthz"
	"github.com/pthm/catauthz/internal/cli"
)

var listActor string

var listCmd = &cobra.Command{
	Use:   "list <action>",
	Short: "List catalog resources an actor is permitted to act on",
	Long:  `Resolve an action against every candidate the catalog knows about and print the allowed ones as /parent/child paths.`,
	Example: `  # List every database an actor may view
  catauthz list view-database --actor '{"id":"alice"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := parseActor(listActor)
		if err != nil {
			return cli.GeneralError("parsing --actor", err)
		}

		ctx := context.Background()
		dispatcher, store, err := buildDispatcher(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		resources, err := dispatcher.PermittedResources(ctx, actor, args[0])
		if err != nil {
			return cli.GeneralError("listing permitted resources", err)
		}

		for _, r := range resources {
			fmt.Println(resourcePath(r))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listActor, "actor", "{}", "actor document as JSON")
}

// resourcePath renders a Candidate as the /parent/child path form used
// throughout the resolver's ResourcePath output.
func resourcePath(c catauthz.Candidate) string {
	switch {
	case c.Parent == nil:
		return "/"
	case c.Child == nil:
		return "/" + *c.Parent
	default:
		return "/" + *c.Parent + "/" + *c.Child
	}
}
