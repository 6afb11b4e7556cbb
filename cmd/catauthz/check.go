package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	catauthz "github.com/pthm/catauthz"
	"github.com/pthm/catauthz/internal/cli"
)

var (
	checkActor  string
	checkParent string
	checkChild  string
)

var checkCmd = &cobra.Command{
	Use:   "check <action>",
	Short: "Check whether an actor may perform an action",
	Long: `Check whether an actor may perform an action on a catalog resource.

Exits 0 when the action is allowed, 3 when it is denied.`,
	Example: `  # Root-scoped action
  catauthz check view-instance --actor '{"id":"alice"}'

  # Table-scoped action
  catauthz check view-table --actor '{"id":"alice"}' --parent mydb --child mytable`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := parseActor(checkActor)
		if err != nil {
			return cli.GeneralError("parsing --actor", err)
		}
		cand, err := parseCandidate(checkParent, checkChild)
		if err != nil {
			return err
		}

		ctx := context.Background()
		dispatcher, store, err := buildDispatcher(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		allowed, err := dispatcher.Can(ctx, actor, args[0], cand)
		if err != nil {
			return cli.GeneralError("resolving check", err)
		}

		if !quiet {
			if allowed {
				fmt.Println("allow")
			} else {
				fmt.Println("deny")
			}
		}
		if !allowed {
			return &cli.ExitError{Code: cli.ExitDeny, Message: "denied"}
		}
		return nil
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkActor, "actor", "{}", "actor document as JSON")
	f.StringVar(&checkParent, "parent", "", "parent resource identifier (database name)")
	f.StringVar(&checkChild, "child", "", "child resource identifier (table/query name)")
}

func parseActor(raw string) (catauthz.Actor, error) {
	var actor catauthz.Actor
	if err := json.Unmarshal([]byte(raw), &actor); err != nil {
		return nil, err
	}
	return actor, nil
}

func parseCandidate(parent, child string) (catauthz.Candidate, error) {
	var cand catauthz.Candidate
	if parent != "" {
		cand.Parent = &parent
	}
	if child != "" {
		if parent == "" {
			return cand, cli.GeneralError("--child requires --parent", nil)
		}
		cand.Child = &child
	}
	return cand, nil
}
