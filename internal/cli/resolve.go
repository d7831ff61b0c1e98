package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
)

type resolveOptions struct {
	Project   string
	OutputDir string
	SBOM      bool
	Settings  settingsFlags
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a project and write classpath files, report, and tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "Project spec path (defaults to ./depresolve.yaml)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Output directory (defaults to the project's defaults.output)")
	cmd.Flags().BoolVar(&opts.SBOM, "sbom", false, "Also write an SPDX SBOM of the resolved modules")
	addSettingsFlags(cmd, &opts.Settings)

	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("sbom", cmd.Flags().Lookup("sbom"))

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		ProjectPath:     resolveString(cmd, opts.Project, "project", "project"),
		OutputDir:       resolveString(cmd, opts.OutputDir, "output", "output"),
		SBOM:            resolveBool(cmd, opts.SBOM, "sbom", "sbom"),
		ResolveSettings: resolveSettings(cmd, opts.Settings),
	})
	printHints(cmd, result.Hints)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "resolved: %s (%s)\n", result.ProjectName, result.Fingerprint)
	if result.OutputDir != "" {
		fmt.Fprintf(out, "outputs: %s\n", result.OutputDir)
	}
	if result.SBOMPath != "" {
		fmt.Fprintf(out, "sbom: %s\n", result.SBOMPath)
	}
	for _, warning := range result.Report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %s: %s\n", warning.Reason, warning.Coordinate, warning.Message)
	}
	return nil
}

func printHints(cmd *cobra.Command, hints []string) {
	for _, hint := range hints {
		fmt.Fprintln(cmd.ErrOrStderr(), hint)
	}
}
