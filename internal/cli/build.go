package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mxkrm/tonegraph/internal/config"
	"github.com/mxkrm/tonegraph/internal/emit"
	"github.com/mxkrm/tonegraph/internal/midifile"
	"github.com/mxkrm/tonegraph/internal/pipeline"
	"github.com/mxkrm/tonegraph/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output      string
	Archive     string
	MinPitch    uint8
	MaxPitch    uint8
	Bits        int
	MaxTerms    int
	MinVelocity uint8
	Repeat      bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <midi-file>",
		Short: "Compile a MIDI file into a player graph document",
		Long: `Build decodes a Standard MIDI File, compiles its note history into
step-function expressions, assembles the player node graph and writes the
JSON document to the output path ("-" for stdout).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", `output path ("-" for stdout)`)
	cmd.Flags().StringVar(&opts.Archive, "archive", "", "also record the build in this archive database")
	cmd.Flags().Uint8Var(&opts.MinPitch, "min-pitch", 0, "minimal note pitch")
	cmd.Flags().Uint8Var(&opts.MaxPitch, "max-pitch", 0, "maximal note pitch")
	cmd.Flags().IntVar(&opts.Bits, "bits", 0, "keys packed per channel")
	cmd.Flags().IntVar(&opts.MaxTerms, "max-terms", 0, "maximal terms per step function")
	cmd.Flags().Uint8Var(&opts.MinVelocity, "min-velocity", 0, "minimal velocity for a note to count as on")
	cmd.Flags().BoolVar(&opts.Repeat, "repeat", false, "loop playback")

	return cmd
}

// resolveConfig layers the config file and any explicitly set flags over
// the defaults.
func resolveConfig(opts *BuildOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		cfg, err = config.Load(opts.Config)
		if err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("min-pitch") {
		cfg.MinPitch = opts.MinPitch
	}
	if flags.Changed("max-pitch") {
		cfg.MaxPitch = opts.MaxPitch
	}
	if flags.Changed("bits") {
		cfg.BitsPerChannel = opts.Bits
	}
	if flags.Changed("max-terms") {
		cfg.MaxTermsPerFunction = opts.MaxTerms
	}
	if flags.Changed("min-velocity") {
		cfg.MinVelocity = opts.MinVelocity
	}
	if flags.Changed("repeat") {
		cfg.Repeat = opts.Repeat
	}

	return cfg, cfg.Validate()
}

func runBuild(opts *BuildOptions, input string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return err
	}

	track, err := midifile.ReadFile(input, midifile.Options{
		MinPitch:    cfg.MinPitch,
		MaxPitch:    cfg.MaxPitch,
		MinVelocity: cfg.MinVelocity,
	})
	if err != nil {
		return err
	}

	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "decoded %d note events, %d tempo changes, %d ticks\n",
			len(track.Notes), len(track.Tempo), track.Length)
	}

	result, err := pipeline.Run(track, cfg)
	if err != nil {
		return err
	}

	doc := emit.NewDocument(result.Graph)
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "built %d nodes across %d channels (%d functions)\n",
			len(result.Graph.Nodes), result.Channels, result.Functions)
	}

	if err := writeOutput(opts.Output, data, cmd.OutOrStdout()); err != nil {
		return err
	}

	if opts.Archive != "" {
		if err := archiveBuild(cmd, opts.Archive, doc.ID, input, cfg, len(result.Graph.Nodes), data); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(dest string, data []byte, stdout io.Writer) error {
	if dest == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return nil
}

func archiveBuild(cmd *cobra.Command, path, id, source string, cfg config.Config, nodeCount int, graphJSON []byte) error {
	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("snapshotting config: %w", err)
	}

	archive, err := store.Open(path)
	if err != nil {
		return err
	}
	defer archive.Close()

	return archive.Save(cmd.Context(), store.Build{
		ID:        id,
		Source:    source,
		Config:    string(snapshot),
		NodeCount: nodeCount,
		Graph:     graphJSON,
	})
}
