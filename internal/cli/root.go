// Package cli implements the tonegraph command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string // optional YAML config path
}

// NewRootCommand creates the root command for the tonegraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tonegraph",
		Short: "tonegraph - compile MIDI files into step-function player graphs",
		Long: `tonegraph folds the note events of a Standard MIDI File into a sparse
multi-channel timeline, compiles each channel's change history into bounded
step-function expressions, and wires the result into a node graph that plays
the piece back through tone generators.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML config file")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}
