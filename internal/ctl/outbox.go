package ctl

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newOutboxCmd(opts *options) *cobra.Command {
	outbox := &cobra.Command{
		Use:     "outbox",
		Short:   "Inspect undelivered notification intents",
		GroupID: "data",
	}

	var limit int
	pending := &cobra.Command{
		Use:   "pending",
		Short: "List pending intents, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rm, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer rm.Close()

			intents, err := rm.Repositories().Outbox.Pending(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(intents) == 0 {
				fmt.Fprintln(out, "No pending intents")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-16s  %-36s  %8s  %s\n", "ID", "TYPE", "POST", "ATTEMPTS", "CREATED")
			for _, in := range intents {
				fmt.Fprintf(out, "%-36s  %-16s  %-36s  %8d  %s\n",
					in.ID, in.Type, in.PostID, in.Attempts, in.CreatedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	pending.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of intents to list")

	outbox.AddCommand(pending)
	return outbox
}
