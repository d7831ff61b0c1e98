package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
	"depresolve/internal/core"
	"depresolve/internal/types"
)

type inspectOptions struct {
	OutputDir string
	Tree      bool
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the classpaths and report of a previous resolve",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "Also print the dependency tree")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(app.InspectRequest{
		OutputDir: resolveString(cmd, opts.OutputDir, "output", "output"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "project: %s\n", result.Project)
	fmt.Fprintf(out, "fingerprint: %s\n", result.Fingerprint)
	for _, scope := range types.AllScopes {
		fmt.Fprintf(out, "classpath.%s: %d entries\n", scope, len(result.Classpaths[scope]))
	}
	fmt.Fprintf(out, "errors: %d, warnings: %d\n", len(result.Errors), len(result.Warnings))
	for _, problem := range slices.Concat(result.Errors, result.Warnings) {
		fmt.Fprintf(out, "- %s %s: %s\n", problem.Reason, problem.Coordinate, problem.Message)
	}
	fmt.Fprintf(out, "resolution.report records: %d\n", len(result.Records))
	for _, record := range result.Records {
		if record.Owner != "" {
			fmt.Fprintf(out, "- %s %s %s (owner=%s)\n", record.Dependency, record.Action, record.Value, record.Owner)
			continue
		}
		fmt.Fprintf(out, "- %s %s %s (%s)\n", record.Dependency, record.Action, record.Value, record.Reason)
	}
	if opts.Tree {
		fmt.Fprint(out, core.RenderTree(result.Tree))
	}
	return nil
}
