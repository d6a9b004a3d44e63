package mergecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lens/cmd/lens/sqlitepath"
	"github.com/papercomputeco/lens/pkg/merkle"
)

const mergeLongDesc string = `Merge one or more source ledgers into a target.

Content-addressing makes this a simple union: nodes that already
exist in the target are skipped (deduped by hash).

Examples:
  lens merge source1.db source2.db
  lens merge --sqlite /tmp/merged.db ~/alice/lens.db ~/bob/lens.db`

const mergeShortDesc string = "Merge request ledgers"

type mergeCommander struct {
	sqlitePath string
}

func NewMergeCmd() *cobra.Command {
	cmder := &mergeCommander{}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to target ledger (default $LENS_DB or ~/.lens/lens.db)")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	targetPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not resolve target ledger: %w", err)
	}

	target, err := merkle.NewSQLiteStorer(targetPath)
	if err != nil {
		return fmt.Errorf("could not open target ledger %s: %w", targetPath, err)
	}
	defer target.Close()

	var totalNew, totalDuped int

	for _, srcPath := range sources {
		if srcPath == targetPath {
			return fmt.Errorf("source %s is the target ledger", srcPath)
		}

		source, err := merkle.NewSQLiteStorer(srcPath)
		if err != nil {
			return fmt.Errorf("could not open source ledger %s: %w", srcPath, err)
		}

		srcNew, srcDuped, err := merkle.Merge(ctx, target, source)
		source.Close()
		if err != nil {
			return fmt.Errorf("could not merge %s: %w", srcPath, err)
		}

		totalNew += srcNew
		totalDuped += srcDuped

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, srcNew, srcDuped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new nodes from %d sources (%d already existed) into %s\n",
		totalNew, len(sources), totalDuped, targetPath)

	return nil
}
