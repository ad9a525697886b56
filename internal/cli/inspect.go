package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mxkrm/tonegraph/internal/emit"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "inspect <document>",
		Short:         "Summarize a built graph document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc emit.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	kinds := map[string]int{}
	edges := 0
	for _, n := range doc.Nodes {
		kinds[n.Kind]++
		edges += len(n.Out)
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", doc.ID)
	fmt.Fprintf(w, "generator\t%s\n", doc.Generator)
	fmt.Fprintf(w, "version\t%d\n", doc.Version)
	fmt.Fprintf(w, "root\t%d\n", doc.Root)
	fmt.Fprintf(w, "nodes\t%d\n", len(doc.Nodes))
	fmt.Fprintf(w, "edges\t%d\n", edges)
	for _, k := range names {
		fmt.Fprintf(w, "nodes/%s\t%d\n", k, kinds[k])
	}
	return w.Flush()
}
