package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mxkrm/tonegraph/internal/store"
)

// NewRunsCommand creates the runs command, which lists archived builds.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var archive string

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List builds recorded in an archive database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, archive)
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "tonegraph.db", "archive database path")
	return cmd
}

func runRuns(cmd *cobra.Command, path string) error {
	archive, err := store.Open(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	builds, err := archive.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no builds recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSOURCE\tNODES")
	for _, b := range builds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			b.ID, b.CreatedAt.Format(time.RFC3339), b.Source, b.NodeCount)
	}
	return w.Flush()
}
