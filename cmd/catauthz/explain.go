package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/catauthz/internal/cli"
)

var (
	explainActor  string
	explainParent string
	explainChild  string
)

var explainCmd = &cobra.Command{
	Use:   "explain <action>",
	Short: "Show the full verdict for an action check",
	Long:  `Resolve an action check and print the verdict: allow, reason, winning source, match depth, and resource path.`,
	Example: `  # Explain why an actor can or can't view a table
  catauthz explain view-table --actor '{"id":"alice"}' --parent mydb --child mytable`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := parseActor(explainActor)
		if err != nil {
			return cli.GeneralError("parsing --actor", err)
		}
		cand, err := parseCandidate(explainParent, explainChild)
		if err != nil {
			return err
		}

		ctx := context.Background()
		dispatcher, store, err := buildDispatcher(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		verdict, err := dispatcher.Explain(ctx, actor, args[0], cand)
		if err != nil {
			return cli.GeneralError("resolving explain", err)
		}

		out, err := yaml.Marshal(verdict)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	f := explainCmd.Flags()
	f.StringVar(&explainActor, "actor", "{}", "actor document as JSON")
	f.StringVar(&explainParent, "parent", "", "parent resource identifier (database name)")
	f.StringVar(&explainChild, "child", "", "child resource identifier (table/query name)")
}
