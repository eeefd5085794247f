// Package ctl implements fudbictl, the operator command line: schema
// migrations, out-of-band admin accounts, outbox inspection and photo
// uploads.
package ctl

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
)

// openManager is a test seam for repomanager.Open.
var openManager = repomanager.Open

type options struct {
	cfg    *config.Config
	stdin  *bufio.Reader
	logger logging.Logger
}

// NewRootCmd builds the command tree. The database DSN defaults to
// FUDBI_DATABASE_DSN and can be overridden with --dsn.
func NewRootCmd(cfg *config.Config, stdin io.Reader) *cobra.Command {
	opts := &options{
		cfg:    cfg,
		stdin:  bufio.NewReader(stdin),
		logger: logging.Nop{},
	}

	root := &cobra.Command{
		Use:           "fudbictl",
		Short:         "Operate a FudBi deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database DSN (memory:// for the in-process store)")

	root.AddGroup(
		&cobra.Group{ID: "data", Title: "Data:"},
		&cobra.Group{ID: "accounts", Title: "Accounts:"},
	)

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newAdminCmd(opts))
	root.AddCommand(newOutboxCmd(opts))
	root.AddCommand(newImageCmd(opts))
	return root
}

// Execute runs the command line against args and reports errors to stderr.
func Execute(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCmd(cfg, stdin)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func (o *options) open(ctx context.Context) (repomanager.RepositoryManager, error) {
	return openManager(ctx, o.cfg.DatabaseDSN)
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Short:   "Apply pending database migrations",
		GroupID: "data",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rm, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer rm.Close()

			if err := rm.RunMigrations(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "MIGRATED")
			return nil
		},
	}
}
