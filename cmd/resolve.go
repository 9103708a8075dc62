package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/ueh/internal/builder"
	"github.com/Norgate-AV/ueh/internal/cli"
	"github.com/Norgate-AV/ueh/internal/toolchain"
)

// resolveResult is the output of the resolve command
type resolveResult struct {
	Project   string   `json:"project" yaml:"project"`
	VersionID string   `json:"version" yaml:"version"`
	Root      string   `json:"root" yaml:"root"`
	Source    string   `json:"source" yaml:"source"`
	Command   []string `json:"command,omitempty" yaml:"command,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var (
		output      string
		showCommand bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [project]",
		Short: "Show the engine install a project builds with",
		Long: `Read the project's EngineAssociation and look it up in the configured
engine_overrides, then the user's and the machine's engine registrations.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.ValidateFormat(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, args)
			if err != nil {
				return err
			}

			descriptor, _, err := a.project(args)
			if err != nil {
				return err
			}

			resolver := a.resolver()
			inst, err := resolver.Resolve(descriptor)
			if err != nil {
				return err
			}

			result := resolveResult{
				Project:   descriptor,
				VersionID: inst.VersionID,
				Root:      inst.Root,
				Source:    inst.Source,
			}

			invoker := builder.NewInvoker(a.cfg.DotnetPath, nil)
			if showCommand {
				if result.Command, err = invoker.BuildCommandArgs(inst.Root, descriptor); err != nil {
					return err
				}
			}

			if output != string(cli.FormatText) {
				if showCommand {
					result.Command = append([]string{invoker.Dotnet()}, result.Command...)
				}

				return cli.OutputResults(cmd.OutOrStdout(), output, result)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Unreal Engine %s\n%s\n(from %s)\n", inst.VersionID, inst.Root, inst.Source)
			if showCommand {
				invoker.PrintBuildInfo(cmd.OutOrStdout(), inst.Root, descriptor, result.Command)
			}

			if a.cfg.Verbose {
				printSources(cmd, resolver)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&showCommand, "command", false, "Also show the project file generation command")

	return cmd
}

func printSources(cmd *cobra.Command, resolver *toolchain.Resolver) {
	fmt.Fprintln(cmd.OutOrStdout(), "Lookup order:")
	for i, src := range resolver.Sources() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, src.Name)
	}
}
